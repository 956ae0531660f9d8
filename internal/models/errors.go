package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the requested state transition is not permitted,
	// e.g. reviewing a submission that already left pending.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrAlreadyInProgress means a retraining or rollback run is in flight.
	ErrAlreadyInProgress = errors.New("operation already in progress")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError reports every malformed field of a request at once so the
// caller can correct them in a single pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s %s", e.Fields[0].Field, e.Fields[0].Reason)
	}
	return fmt.Sprintf("validation failed: %d invalid fields", len(e.Fields))
}

// RetrainingError reports a Trainer failure: abnormal exit, malformed output,
// or timeout. The review decision that triggered the run stays recorded.
type RetrainingError struct {
	Cause   error
	Timeout bool
}

func (e *RetrainingError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("retraining failed: trainer timed out: %v", e.Cause)
	}
	return fmt.Sprintf("retraining failed: %v", e.Cause)
}

func (e *RetrainingError) Unwrap() error { return e.Cause }

// PersistenceError marks a ledger operation that could not complete durably.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
