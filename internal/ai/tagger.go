package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/amishk599/autojob/internal/model"
)

const (
	maxSuggestedTags = 8
	// maxPromptContent caps the posting text sent to the model, in runes.
	maxPromptContent = 6000
)

// Ensure LLMTagger implements model.TagSuggester.
var _ model.TagSuggester = (*LLMTagger)(nil)

// LLMTagger suggests search tags for a job posting using an LLM.
type LLMTagger struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

// NewLLMTagger creates a tagger that renders tmpl and sends it to provider.
func NewLLMTagger(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMTagger {
	return &LLMTagger{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// SuggestTags returns up to eight deduplicated tags for in. A posting with no
// content yields no tags and makes no LLM call.
func (t *LLMTagger) SuggestTags(ctx context.Context, in model.RecordInput) ([]string, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, nil
	}
	if r := []rune(content); len(r) > maxPromptContent {
		content = string(r[:maxPromptContent])
	}

	var promptBuf bytes.Buffer
	if err := t.tmpl.Execute(&promptBuf, struct{ Company, Role, Content string }{
		Company: strings.TrimSpace(in.Company),
		Role:    strings.TrimSpace(in.Role),
		Content: content,
	}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := t.provider.Complete(ctx, promptBuf.String())
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	tags, err := parseTags(raw)
	if err != nil {
		return nil, fmt.Errorf("parse tags: %w", err)
	}

	if t.logger != nil {
		t.logger.Debug("tags suggested", "company", in.Company, "role", in.Role, "tags", tags)
	}
	return tags, nil
}

// rawTags is the JSON shape returned by the LLM (matches jobTagsSchema).
type rawTags struct {
	Tags []string `json:"tags"`
}

// parseTags deserializes the LLM response, trims each tag, drops blanks and
// case-insensitive duplicates, and caps the list at maxSuggestedTags.
func parseTags(raw string) ([]string, error) {
	var rt rawTags
	if err := json.Unmarshal([]byte(raw), &rt); err != nil {
		return nil, fmt.Errorf("unmarshal tags JSON: %w", err)
	}
	return MergeTags(maxSuggestedTags, rt.Tags), nil
}

// MergeTags concatenates tag lists in order, dropping blanks and
// case-insensitive duplicates. limit <= 0 means no limit.
func MergeTags(limit int, lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, tag := range list {
			tag = strings.TrimSpace(tag)
			key := strings.ToLower(tag)
			if tag == "" || seen[key] {
				continue
			}
			if limit > 0 && len(out) == limit {
				return out
			}
			seen[key] = true
			out = append(out, tag)
		}
	}
	return out
}
