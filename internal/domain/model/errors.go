package model

import (
	"errors"
	"fmt"
)

// ValidationError reports input that violates a business rule. Nothing is
// persisted when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrChargeExists signals that interest was already charged for the day.
	ErrChargeExists = errors.New("interest already charged for date")
	// ErrConcurrentUpdate signals an optimistic locking conflict.
	ErrConcurrentUpdate = errors.New("optimistic locking conflict")
	// ErrMinimumPaymentCovered signals that a minimum payment falls in a cycle
	// that is already paid, typically a redelivered payment event.
	ErrMinimumPaymentCovered = errors.New("minimum payment already recorded for cycle")
)
