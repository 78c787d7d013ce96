package ai

import (
	"context"

	"github.com/amishk599/autojob/internal/model"
)

// NopTagger is a no-op suggester used when ai.enabled is false.
type NopTagger struct{}

// NewNopTagger returns a NopTagger.
func NewNopTagger() *NopTagger {
	return &NopTagger{}
}

// SuggestTags returns no tags.
func (n *NopTagger) SuggestTags(_ context.Context, _ model.RecordInput) ([]string, error) {
	return nil, nil
}
