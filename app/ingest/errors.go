package ingest

import (
	"errors"
	"fmt"
)

// FailureKind classifies why processing a single feed URL failed
type FailureKind string

const (
	KindFetch       FailureKind = "fetch"
	KindParse       FailureKind = "parse"
	KindResolution  FailureKind = "resolution"
	KindPersistence FailureKind = "persistence"
)

// Error is a per-URL ingestion failure. All worker errors are wrapped in
// one of these so the orchestrator can record the failure and move on
// without aborting sibling URLs.
type Error struct {
	Kind FailureKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind FailureKind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

// KindOf returns the failure kind of an ingestion error, or empty when the
// error did not originate from the worker.
func KindOf(err error) FailureKind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}
