package model

import (
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ValidationError reports a rejected record. The store is left unchanged.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// StorageError reports a failure to persist the store, as opposed to bad input.
type StorageError struct {
	Op   string // e.g. "write", "rename", "insert"
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
