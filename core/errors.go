/*
errors.go - Centralized error types for the fee engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Aggregation itself never fails (bad input collapses to zero); the
  errors here belong to the store boundary and the save workflow.

ERROR CATEGORIES:
  1. Store errors - Record store I/O failures (surfaced, never retried)
  2. Lookup errors - Missing cases or activities
  3. Save workflow errors - Cancelled debounced saves

USAGE:
  if errors.Is(err, core.ErrStoreUnavailable) {
      // keep local edits, let the user retry
  }

SEE ALSO:
  - store.go: Interfaces whose implementations return these
  - session/workspace.go: Wraps save failures in SaveError
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCaseNotFound is returned when a case id has no record.
	ErrCaseNotFound = errors.New("case not found")

	// ErrUnknownActivity is returned when an edit names an activity the
	// workspace does not hold.
	ErrUnknownActivity = errors.New("unknown activity")

	// ErrUnknownCategory marks a categorization result outside the taxonomy.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrStoreUnavailable is returned when the record store read or write fails.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrSaveCancelled is returned when a debounced save is dropped because
	// its session ended.
	ErrSaveCancelled = errors.New("save cancelled")

	// ErrInvalidDateRange is returned when a bounded range ends before it starts.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SaveError reports a failed fee-estimate flush. Local edits are kept.
type SaveError struct {
	CaseID string
	Err    error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save fee estimate for case %s: %v", e.CaseID, e.Err)
}

func (e *SaveError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if a manual retry might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownActivity) ||
		errors.Is(err, ErrInvalidDateRange)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCaseNotFound)
}
