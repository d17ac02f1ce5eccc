// Package errs defines the error taxonomy shared by the domain services.
//
// Four kinds cover everything a caller can act on: ValidationError for
// malformed input or violated preconditions, NotFoundError for missing
// entities, ConflictError for requests the current state cannot accept,
// and OnChainError for failed ledger calls. Anything else is an
// infrastructure failure and propagates as a plain wrapped error.
package errs

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input or a violated precondition. It is
// always raised before any mutation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a referenced entity that does not exist off-chain.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// NotFoundf builds a NotFoundError with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports a well-formed request that the current state cannot
// accept (tank full, starter pack already owned, decoration already active).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflictf builds a ConflictError with a formatted message.
func Conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// OnChainError reports a failed ledger call. LastTxID carries the
// transaction id of the last ledger step that succeeded before the failure,
// when there was one, so an operator can reconcile manually.
type OnChainError struct {
	Op       string
	LastTxID string
	Err      error
}

func (e *OnChainError) Error() string {
	if e.LastTxID != "" {
		return fmt.Sprintf("on-chain %s failed (last committed tx %s): %v", e.Op, e.LastTxID, e.Err)
	}
	return fmt.Sprintf("on-chain %s failed: %v", e.Op, e.Err)
}

func (e *OnChainError) Unwrap() error { return e.Err }

// OnChain wraps a ledger failure for the given operation.
func OnChain(op string, err error) error {
	return &OnChainError{Op: op, Err: err}
}

// OnChainAfter wraps a ledger failure that happened after lastTxID had
// already been committed on chain.
func OnChainAfter(op, lastTxID string, err error) error {
	return &OnChainError{Op: op, LastTxID: lastTxID, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var v *NotFoundError
	return errors.As(err, &v)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var v *ConflictError
	return errors.As(err, &v)
}

// IsOnChain reports whether err is an OnChainError.
func IsOnChain(err error) bool {
	var v *OnChainError
	return errors.As(err, &v)
}
