package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session id is unknown to the store.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyWishlist is returned when a session would be created without offers.
	ErrEmptyWishlist = errors.New("wishlist must have at least one flight")
)

// ValidationError describes a rejected request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
