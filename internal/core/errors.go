package core

import (
	"errors"
	"fmt"
)

// InvalidInputError reports malformed input to a classification call.
// Fatal to the single call; never retried.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ServiceUnavailableError reports a failed remote classification call
// (transport error, non-2xx status, or malformed payload). It triggers the
// heuristic fallback and is never surfaced to the caller of the engine.
type ServiceUnavailableError struct {
	Op  string
	Err error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("classification service unavailable during %s: %v", e.Op, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// StoreError wraps a local persistence failure. It is surfaced to the
// caller but never affects classification itself.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("scan store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ReadOnlyRecordError reports a mutation attempt against a remote-origin
// scan record. The store is never touched.
type ReadOnlyRecordError struct {
	ID string
}

func (e *ReadOnlyRecordError) Error() string {
	return fmt.Sprintf("record %q is owned by the backend audit log and is read-only", e.ID)
}

// PartialHistoryError reports that exactly one of the two history sources
// failed. Non-fatal: the merged view still renders with reduced
// visibility, and this error is carried as observability metadata only.
type PartialHistoryError struct {
	Source string
	Err    error
}

func (e *PartialHistoryError) Error() string {
	return fmt.Sprintf("history source %s unavailable: %v", e.Source, e.Err)
}

func (e *PartialHistoryError) Unwrap() error { return e.Err }

// IsServiceUnavailable reports whether err is a ServiceUnavailableError
// anywhere in its chain.
func IsServiceUnavailable(err error) bool {
	var sue *ServiceUnavailableError
	return errors.As(err, &sue)
}
