// Package apperrors defines the failure categories shared by all services.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel categories. Services wrap them with context via %w so handlers
// can map an error to an HTTP status with errors.Is.
var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an absent entity (or an unpublished course).
	ErrNotFound = errors.New("not found")
	// ErrForbidden marks content that exists but is locked for the user.
	ErrForbidden = errors.New("forbidden")
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}
