/*
errors.go - Error types for the query layer

ERROR CATEGORIES:
  1. Store errors - connectivity and operation faults. Fatal for a run.
  2. Range errors - a window whose end precedes its start.

Per-record anomalies (malformed dates, empty seed sets, unresolved
references) are NOT errors. The component that meets them absorbs them.

USAGE:
  if errors.Is(err, engine.ErrStoreOperation) {
      // abort the run
  }
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrStoreUnavailable is returned when the store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrStoreOperation is returned when a store call fails after connecting.
	ErrStoreOperation = errors.New("store operation failed")

	// ErrUnknownCollection is returned by stores that refuse reads of
	// collections they have never seen. The bundled stores treat an unknown
	// collection as empty instead.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrInvalidRange is returned for a range that ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end before start")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StoreError records which store call failed and on which collection.
type StoreError struct {
	Op         string // replace_all, find, aggregate, distinct, connect
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

// Unwrap exposes both the driver error and the category sentinel.
func (e *StoreError) Unwrap() []error {
	if e.Op == "connect" {
		return []error{ErrStoreUnavailable, e.Err}
	}
	return []error{ErrStoreOperation, e.Err}
}

// OpError wraps a driver error for a failed store call. nil stays nil.
func OpError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// IsStoreFault reports whether err should abort a run.
func IsStoreFault(err error) bool {
	return errors.Is(err, ErrStoreOperation) || errors.Is(err, ErrStoreUnavailable)
}
