package store

import (
	"testing"

	"github.com/amishk599/autojob/internal/model"
)

// countingStore counts Query calls against an in-memory record slice.
type countingStore struct {
	records []model.JobRecord
	queries int
}

func (s *countingStore) Query(tags string) model.QueryResult {
	s.queries++
	return runQuery(s.records, tags)
}

func (s *countingStore) Save(in model.RecordInput) (model.JobRecord, error) {
	rec, err := model.NewJobRecord(in, fixedNow)
	if err != nil {
		return model.JobRecord{}, err
	}
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *countingStore) All() []model.JobRecord { return s.records }

func newTestCachedStore(t *testing.T) (*CachedStore, *countingStore) {
	t.Helper()
	inner := &countingStore{}
	c, err := NewCachedStore(inner, 8)
	if err != nil {
		t.Fatalf("NewCachedStore: %v", err)
	}
	return c, inner
}

func TestCachedStore_ServesRepeatQueriesFromCache(t *testing.T) {
	c, inner := newTestCachedStore(t)
	mustSave(t, c, byteDanceInput())

	first := c.Query("Python, AI")
	second := c.Query("python   ai") // same normalized tokens
	if inner.queries != 1 {
		t.Errorf("inner queries = %d, want 1", inner.queries)
	}
	if len(first.Matches) != 1 || len(second.Matches) != 1 {
		t.Errorf("matches = %d/%d, want 1/1", len(first.Matches), len(second.Matches))
	}
}

func TestCachedStore_SavePurges(t *testing.T) {
	c, inner := newTestCachedStore(t)
	mustSave(t, c, byteDanceInput())

	if got := len(c.Query("Python").Matches); got != 1 {
		t.Fatalf("matches = %d, want 1", got)
	}

	in := byteDanceInput()
	in.Company = "Shopee"
	mustSave(t, c, in)

	if c.Len() != 0 {
		t.Errorf("cache len = %d after save, want 0", c.Len())
	}
	if got := len(c.Query("Python").Matches); got != 2 {
		t.Errorf("matches after save = %d, want 2", got)
	}
	if inner.queries != 2 {
		t.Errorf("inner queries = %d, want 2", inner.queries)
	}
}

func TestCachedStore_FailedSaveKeepsCache(t *testing.T) {
	c, _ := newTestCachedStore(t)
	mustSave(t, c, byteDanceInput())
	c.Query("Python")

	if _, err := c.Save(model.RecordInput{Role: "Engineer"}); err == nil {
		t.Fatal("expected validation error")
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}

func TestCachedStore_InvalidTagsBypassCache(t *testing.T) {
	c, inner := newTestCachedStore(t)
	mustSave(t, c, byteDanceInput())

	if res := c.Query(" , "); res.Status != model.QueryInvalidTags {
		t.Errorf("status = %v, want invalid_tags", res.Status)
	}
	if c.Len() != 0 {
		t.Errorf("cache len = %d, want 0", c.Len())
	}
	if inner.queries != 1 {
		t.Errorf("inner queries = %d, want 1", inner.queries)
	}
}

func TestCachedStore_CachedResultIsolatedFromCaller(t *testing.T) {
	c, _ := newTestCachedStore(t)
	mustSave(t, c, byteDanceInput())

	res := c.Query("Python")
	res.Matches[0].Company = "mutated"
	res.Matches[0].Tags[0] = "mutated"

	again := c.Query("Python")
	if again.Matches[0].Company != "ByteDance" || again.Matches[0].Tags[0] != "Python" {
		t.Errorf("cached result mutated by caller: %+v", again.Matches[0])
	}
}

func TestNewCachedStore_RejectsZeroSize(t *testing.T) {
	if _, err := NewCachedStore(&countingStore{}, 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}

// pausingStore computes each query result, then blocks until released.
type pausingStore struct {
	countingStore
	entered chan struct{}
	release chan struct{}
}

func (s *pausingStore) Query(tags string) model.QueryResult {
	res := s.countingStore.Query(tags)
	if s.entered != nil {
		s.entered <- struct{}{}
		<-s.release
	}
	return res
}

func TestCachedStore_SaveDuringQueryDoesNotCacheStaleResult(t *testing.T) {
	inner := &pausingStore{entered: make(chan struct{}), release: make(chan struct{})}
	c, err := NewCachedStore(inner, 8)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan model.QueryResult)
	go func() { done <- c.Query("Shopee") }()

	<-inner.entered // the miss has read the empty store
	mustSave(t, c, model.RecordInput{Company: "Shopee", Role: "Backend"})
	close(inner.release)

	if res := <-done; res.Status != model.QueryEmptyStore {
		t.Fatalf("in-flight status = %v, want empty_store", res.Status)
	}

	inner.entered = nil
	if res := c.Query("Shopee"); !res.Found() {
		t.Errorf("status = %v, want matched (stale result must not be cached)", res.Status)
	}
	if c.Len() != 1 {
		t.Errorf("cache len = %d, want 1", c.Len())
	}
}
