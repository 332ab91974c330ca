// Package errors carries the application error taxonomy. The engine core
// itself never raises typed errors for numeric edge cases; these types are
// used at the boundary, where requests are validated before they reach the
// engines.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType uint

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidArgument marks rejected input, e.g. a portfolio whose
	// weights do not sum to one.
	ErrorTypeInvalidArgument
	// ErrorTypeNotFound marks a missing entity.
	ErrorTypeNotFound
	// ErrorTypeTimeout marks an operation that ran out of time.
	ErrorTypeTimeout
	// ErrorTypeInternal marks a broken internal contract.
	ErrorTypeInternal
)

// AppError is an error with a type and an optional wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an unclassified error.
func New(message string) error {
	return &AppError{Type: ErrorTypeUnknown, Message: message}
}

// Newf creates an unclassified error from a format string.
func Newf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeUnknown, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a message, preserving its type when it already is an
// AppError.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{Type: appErr.Type, Message: message, Err: err}
	}
	return &AppError{Type: ErrorTypeUnknown, Message: message, Err: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// InvalidArgument creates an invalid-argument error.
func InvalidArgument(message string) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: message}
}

// InvalidArgumentf creates an invalid-argument error from a format string.
func InvalidArgumentf(format string, args ...interface{}) error {
	return &AppError{Type: ErrorTypeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(message string) error {
	return &AppError{Type: ErrorTypeNotFound, Message: message}
}

// Timeout creates a timeout error.
func Timeout(message string) error {
	return &AppError{Type: ErrorTypeTimeout, Message: message}
}

// Internal creates an internal error.
func Internal(message string) error {
	return &AppError{Type: ErrorTypeInternal, Message: message}
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}
