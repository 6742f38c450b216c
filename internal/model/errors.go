package model

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCategory is returned when a category is unknown or cannot be used
	// at the requested entry point (e.g. broadcasting COMMENT_LIKE).
	ErrInvalidCategory = errors.New("invalid notification category")

	// ErrPersistence wraps any failure of the batched notification insert.
	// When it is returned no push has been attempted.
	ErrPersistence = errors.New("notification persistence failed")

	// ErrNotificationNotFound is returned when a notification does not exist for the user.
	ErrNotificationNotFound = errors.New("notification not found")
)

// ValidationError describes a request that was rejected before touching any store.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
