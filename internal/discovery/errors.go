package discovery

import (
	"errors"
	"fmt"
)

// errDuplicate marks a candidate that already has a registry entry.
// It flows through the validator/upserter as a sentinel, never surfaces to
// callers, and counts as a duplicate-skip in the report.
var errDuplicate = errors.New("already registered")

// RejectionError marks a candidate that failed validation on its merits
// (no dependency signature, or the repository is a fork). Rejections are
// normal skip outcomes, not errors; they land in the failed bucket with
// their reason so the report never silently drops a candidate.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// FetchError marks a manifest or metadata fetch that failed for a candidate
// (network error, timeout, parse error). It fails the candidate without
// aborting the run.
type FetchError struct {
	Stage string // "manifest" or "metadata"
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// FatalStoreError aborts the run: the registry store is unreachable, so no
// candidate can be processed at all.
type FatalStoreError struct {
	Err error
}

func (e *FatalStoreError) Error() string {
	return fmt.Sprintf("registry store unavailable: %v", e.Err)
}

func (e *FatalStoreError) Unwrap() error {
	return e.Err
}
