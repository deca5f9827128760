// Package errors provides error handling for the job board.
//
// It re-exports github.com/cockroachdb/errors (stack traces, wrapping, details and hints)
// and defines the sentinel errors every layer uses to classify failures:
//
//	if err := repo.InsertApplication(ctx, app); err != nil {
//	    return errors.Wrap(err, "failed to submit application")
//	}
//
//	if errors.Is(err, errors.ErrAlreadyApplied) {
//	    // show "you already applied to this job"
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors. Wrap them to add context; errors.Is still matches.
var (
	// ErrValidation indicates a missing or invalid field on a command input
	ErrValidation = New("validation failed")

	// ErrAlreadyApplied indicates the seeker's latest application for the job is still active
	ErrAlreadyApplied = New("already applied")

	// ErrJobClosed indicates the job no longer accepts applications
	ErrJobClosed = New("job is closed")

	// ErrNotFound indicates the referenced job, application or user does not exist
	ErrNotFound = New("not found")

	// ErrStoreUnavailable indicates a transient document store failure; safe to retry
	ErrStoreUnavailable = New("store unavailable")

	// ErrForbidden indicates the actor may not perform the command on this resource
	ErrForbidden = New("forbidden")

	// ErrUnauthorized indicates the request carries no valid identity
	ErrUnauthorized = New("unauthorized")

	// ErrInvalidTransition indicates a state change the lifecycle does not allow
	ErrInvalidTransition = New("invalid state transition")

	// ErrConflict indicates a uniqueness constraint rejected a write
	ErrConflict = New("resource conflict")
)

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsValidation checks if an error is or wraps ErrValidation
func IsValidation(err error) bool {
	return err != nil && Is(err, ErrValidation)
}

// IsAlreadyApplied checks if an error is or wraps ErrAlreadyApplied
func IsAlreadyApplied(err error) bool {
	return err != nil && Is(err, ErrAlreadyApplied)
}

// IsJobClosed checks if an error is or wraps ErrJobClosed
func IsJobClosed(err error) bool {
	return err != nil && Is(err, ErrJobClosed)
}

// IsStoreUnavailable checks if an error is or wraps ErrStoreUnavailable
func IsStoreUnavailable(err error) bool {
	return err != nil && Is(err, ErrStoreUnavailable)
}

// IsForbidden checks if an error is or wraps ErrForbidden
func IsForbidden(err error) bool {
	return err != nil && Is(err, ErrForbidden)
}

// IsInvalidTransition checks if an error is or wraps ErrInvalidTransition
func IsInvalidTransition(err error) bool {
	return err != nil && Is(err, ErrInvalidTransition)
}

// NewValidationError creates a validation error with a formatted message
func NewValidationError(format string, args ...interface{}) error {
	return Wrap(ErrValidation, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewForbiddenError creates a forbidden error with a formatted message
func NewForbiddenError(format string, args ...interface{}) error {
	return Wrap(ErrForbidden, Newf(format, args...).Error())
}

// NewInvalidTransitionError creates an invalid-transition error naming both states
func NewInvalidTransitionError(entity, from, to string) error {
	err := Wrapf(ErrInvalidTransition, "%s cannot move from %s to %s", entity, from, to)
	return WithDetailf(err, "current state: %s", from)
}

// WrapStoreUnavailable marks a transient store failure while keeping the cause
func WrapStoreUnavailable(err error, operation string) error {
	return Mark(Wrapf(err, "%s", operation), ErrStoreUnavailable)
}
