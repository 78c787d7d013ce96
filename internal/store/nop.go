package store

import (
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// NopStore is a no-op store used in dry-run mode. It validates saves but
// never persists them, so every query sees an empty store.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) Query(tags string) model.QueryResult {
	return model.QueryResult{Status: model.QueryEmptyStore}
}

func (s *NopStore) Save(in model.RecordInput) (model.JobRecord, error) {
	return model.NewJobRecord(in, time.Now())
}

func (s *NopStore) All() []model.JobRecord { return nil }
