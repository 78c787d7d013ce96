package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests sharing a key,
// usually a host name.
type HostRateLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time
	minDelay time.Duration
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests with the same key.
func NewHostRateLimiter(minDelay time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request for key.
// Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, key string) error {
	r.mu.Lock()
	last, ok := r.lastCall[key]
	now := time.Now()

	if !ok {
		// First request for this key, no wait needed.
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[key] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before sleeping so concurrent callers queue up.
	remaining := r.minDelay - elapsed
	r.lastCall[key] = now.Add(remaining)
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(remaining):
	}
	return nil
}

// RateLimitedSearcher is a decorator that enforces a per-engine delay before
// delegating to the wrapped WebSearcher.
type RateLimitedSearcher struct {
	inner   model.WebSearcher
	limiter *HostRateLimiter
	key     string
}

// NewRateLimitedSearcher wraps a WebSearcher. All searchers hitting the same
// engine should share the limiter and key.
func NewRateLimitedSearcher(inner model.WebSearcher, limiter *HostRateLimiter, key string) *RateLimitedSearcher {
	return &RateLimitedSearcher{inner: inner, limiter: limiter, key: key}
}

func (s *RateLimitedSearcher) Search(ctx context.Context, query string, max int) ([]model.SearchResult, error) {
	if err := s.limiter.Wait(ctx, s.key); err != nil {
		return nil, err
	}
	return s.inner.Search(ctx, query, max)
}

// RateLimitedPageFetcher spaces out requests to the same host.
type RateLimitedPageFetcher struct {
	inner   model.PageFetcher
	limiter *HostRateLimiter
}

func NewRateLimitedPageFetcher(inner model.PageFetcher, limiter *HostRateLimiter) *RateLimitedPageFetcher {
	return &RateLimitedPageFetcher{inner: inner, limiter: limiter}
}

func (f *RateLimitedPageFetcher) FetchPage(ctx context.Context, rawURL string) (string, error) {
	key := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		key = u.Host
	}
	if err := f.limiter.Wait(ctx, key); err != nil {
		return "", err
	}
	return f.inner.FetchPage(ctx, rawURL)
}
