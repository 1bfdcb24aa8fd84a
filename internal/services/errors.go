package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidStateTransition is returned when a decision is attempted on a
	// request that has already left the PENDING state.
	ErrInvalidStateTransition = errors.New("request is not pending")

	// ErrForbidden is returned when the acting user is not allowed to perform
	// the operation, such as editing a resource they did not create.
	ErrForbidden = errors.New("operation not allowed for this user")
)

// ValidationError reports a rejected input field. Handlers map it to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
