package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrContactNotFound is returned by a ContactResolver when the user has no usable address.
var ErrContactNotFound = errors.New("contact not found")

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

// ValidationError rejects a request before any side effect.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UnsupportedSourceError is returned for a source identifier with no registered adapter.
type UnsupportedSourceError struct {
	Source Source
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source %q", string(e.Source))
}

// FetchError is a page-level adapter failure: navigation, timeout or missing page structure.
type FetchError struct {
	Source Source
	Term   string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch for %q: %v", e.Source, e.Term, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ItemExtractionError describes one listing an adapter could not extract. Never fatal.
type ItemExtractionError struct {
	Source Source
	Index  int
	Err    error
}

func (e *ItemExtractionError) Error() string {
	return fmt.Sprintf("%s item %d: %v", e.Source, e.Index, e.Err)
}

func (e *ItemExtractionError) Unwrap() error {
	return e.Err
}

// DuplicateKeyError reports an insert that lost to an existing row with the same key.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate listing %s/%q: %q %s", e.Key.Source, e.Key.SearchTerm, e.Key.Title, e.Key.Link)
}

// NotifyError wraps a failed notification dispatch.
type NotifyError struct {
	User string
	Err  error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.User, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}
