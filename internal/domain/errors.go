package domain

import (
	"errors"
	"fmt"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrURLNotFound is returned when a short code doesn't exist or is inactive
	ErrURLNotFound = errors.New("URL not found")

	// ErrURLExpired is returned when accessing an expired URL
	ErrURLExpired = errors.New("URL has expired")

	// ErrInvalidURL is returned when the provided URL is invalid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrCodeTaken is returned when a custom alias is already in use
	ErrCodeTaken = errors.New("short code already exists")

	// ErrStoreUnavailable is returned when the durable store times out or is
	// unreachable during a lookup. Callers must treat it as retryable and
	// must never collapse it into ErrURLNotFound.
	ErrStoreUnavailable = errors.New("durable store unavailable")

	// ErrCacheUnavailable is returned when cache operations fail
	ErrCacheUnavailable = errors.New("cache temporarily unavailable")
)

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidURL,
		Message:    message,
		StatusCode: 400,
		Internal:   false,
	}
}

// NewInternalError creates a 500 internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "Internal server error occurred",
		StatusCode: 500,
		Internal:   true, // Log this error
	}
}

// NewStoreError wraps a durable-store failure as a retryable error
func NewStoreError(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
