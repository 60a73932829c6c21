package services

import (
	"errors"
	"fmt"
)

// Business-rule errors surfaced by the services. Handlers map these to HTTP
// statuses with errors.Is; anything else wrapped in PersistenceError is a
// store failure.
var (
	ErrNotFound             = errors.New("not found")
	ErrEmptyQuestionSet     = errors.New("question set has no questions")
	ErrSessionExpired       = errors.New("session time is over")
	ErrMissingCreatorFilter = errors.New("creator filter is required")
	ErrForbidden            = errors.New("access denied")
	ErrValidation           = errors.New("invalid input")
)

// PersistenceError wraps a store-level failure with the operation that hit
// it. The cause is retained for logging and never shown to clients raw.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
