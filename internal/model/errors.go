package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable marks a resource-level store failure. It aborts a cycle
// before the sweep.
var ErrStoreUnavailable = errors.New("store unavailable")

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

// ValidationError is returned when a raw posting cannot be normalized.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid posting: %s %s", e.Field, e.Reason)
}

// PersistenceError is returned when the store fails to write one posting.
type PersistenceError struct {
	Op    string
	JobID int64
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.JobID != 0 {
		return fmt.Sprintf("%s job %d: %v", e.Op, e.JobID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// SourceError records that a whole source failed to scrape.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
