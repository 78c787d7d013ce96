package store

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/amishk599/autojob/internal/filter"
	"github.com/amishk599/autojob/internal/model"
)

// Ensure CachedStore implements model.RecordStore.
var _ model.RecordStore = (*CachedStore)(nil)

// CachedStore memoizes query results in an LRU keyed by the normalized token
// list. Any successful save purges the cache. Writes made by other processes
// are not observed until the next local save, so it is only enabled when this
// process is the store's sole writer.
type CachedStore struct {
	inner model.RecordStore
	cache *lru.Cache[string, model.QueryResult]

	mu  sync.Mutex
	gen uint64 // bumped on every purge
}

// NewCachedStore wraps inner with a query cache holding up to size entries.
func NewCachedStore(inner model.RecordStore, size int) (*CachedStore, error) {
	cache, err := lru.New[string, model.QueryResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (c *CachedStore) Query(tags string) model.QueryResult {
	f := filter.NewTagFilter(tags)
	if f.Empty() {
		return c.inner.Query(tags)
	}

	key := strings.Join(f.Tokens(), "\x1f")
	if res, ok := c.cache.Get(key); ok {
		return cloneResult(res)
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	res := c.inner.Query(tags)

	// A save that purged while inner.Query ran may have made res stale.
	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(key, cloneResult(res))
	}
	c.mu.Unlock()
	return res
}

func (c *CachedStore) Save(in model.RecordInput) (model.JobRecord, error) {
	rec, err := c.inner.Save(in)
	if err != nil {
		return rec, err
	}
	c.mu.Lock()
	c.gen++
	c.cache.Purge()
	c.mu.Unlock()
	return rec, nil
}

func (c *CachedStore) All() []model.JobRecord {
	return c.inner.All()
}

// Len returns the number of cached query results.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
