package models

import (
	"errors"
	"fmt"
)

// Common errors used throughout the application
var (
	ErrStorageCorrupt       = errors.New("cart storage is corrupt")
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrCategoryNotFound     = errors.New("ticket category not found")
	ErrCartItemNotFound     = errors.New("cart item not found")
	ErrAlreadyCompleted     = errors.New("checkout already completed")
	ErrSubmissionInProgress = errors.New("checkout submission already in progress")
	ErrReservationExpired   = errors.New("reservation expired")
)

// ValidationError is a user-correctable input error
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SubmissionError wraps a failure that happened while placing an order
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	return e.Message
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
