package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInternal           = errors.New("internal_error")
	ErrInvalidInput       = errors.New("invalid_input")
	ErrAccountExists      = errors.New("account_exists")
	ErrNoteNotFound       = errors.New("note_not_found")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
)

// ValidationError reports which input was rejected. It matches
// ErrInvalidInput with errors.Is and its text is safe to show to users.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Reason }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func internalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
