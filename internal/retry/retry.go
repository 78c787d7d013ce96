package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/autojob/internal/model"
)

// Policy retries transient failures with exponential backoff and jitter.
type Policy struct {
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewPolicy creates a retry policy.
// maxRetries is the number of additional attempts after the first failure (default: 2).
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewPolicy(maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Policy {
	return &Policy{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// do runs fn, retrying on transient errors.
func do[T any](ctx context.Context, p *Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	out, err := fn(ctx)
	if err == nil {
		return out, nil
	}
	if !isRetryable(err) {
		return zero, err
	}

	var lastErr error = err
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		delay := p.backoffDelay(attempt, lastErr)

		p.logger.Warn("retrying after transient error",
			"op", op,
			"attempt", attempt,
			"max_retries", p.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		out, err = fn(ctx)
		if err == nil {
			return out, nil
		}
		if !isRetryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, lastErr
}

// RetrySearcher is a decorator that retries transient web search failures.
type RetrySearcher struct {
	inner  model.WebSearcher
	policy *Policy
}

// NewRetrySearcher wraps a WebSearcher with retry logic.
func NewRetrySearcher(inner model.WebSearcher, policy *Policy) *RetrySearcher {
	return &RetrySearcher{inner: inner, policy: policy}
}

func (s *RetrySearcher) Search(ctx context.Context, query string, max int) ([]model.SearchResult, error) {
	return do(ctx, s.policy, "search", func(ctx context.Context) ([]model.SearchResult, error) {
		return s.inner.Search(ctx, query, max)
	})
}

// RetryPageFetcher is a decorator that retries transient page fetch failures.
type RetryPageFetcher struct {
	inner  model.PageFetcher
	policy *Policy
}

// NewRetryPageFetcher wraps a PageFetcher with retry logic.
func NewRetryPageFetcher(inner model.PageFetcher, policy *Policy) *RetryPageFetcher {
	return &RetryPageFetcher{inner: inner, policy: policy}
}

func (f *RetryPageFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	return do(ctx, f.policy, "fetch_page", func(ctx context.Context) (string, error) {
		return f.inner.FetchPage(ctx, url)
	})
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (p *Policy) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := p.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation, never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests, retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx, retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429), not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.), retryable.
	return true
}
