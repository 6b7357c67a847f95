// Package errors defines the typed error taxonomy of the quiz engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific error type for quiz engine operations.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown session, quiz or question id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeForbidden indicates the caller does not own the resource.
	ErrCodeForbidden ErrorCode = "FORBIDDEN"
	// ErrCodeConflict indicates a state conflict, e.g. the quiz was already
	// completed today or a duplicate active session exists.
	ErrCodeConflict ErrorCode = "CONFLICT"
	// ErrCodeGone indicates the session has expired.
	ErrCodeGone ErrorCode = "GONE"
	// ErrCodeUnprocessable indicates the quiz is incomplete and force was not set.
	ErrCodeUnprocessable ErrorCode = "UNPROCESSABLE"
	// ErrCodeInsufficientInventory indicates a balanced quiz cannot be assembled.
	ErrCodeInsufficientInventory ErrorCode = "INSUFFICIENT_INVENTORY"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnauthorized indicates a missing or unverifiable identity.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInternal indicates a persistence or repository failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// EngineError represents a structured error for quiz engine operations.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetCode returns the error code.
func (e *EngineError) GetCode() ErrorCode {
	return e.Code
}

// HTTPStatus maps the error code to an HTTP status code.
func (e *EngineError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeGone:
		return http.StatusGone
	case ErrCodeUnprocessable, ErrCodeInsufficientInventory:
		return http.StatusUnprocessableEntity
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf extracts the engine error code from an error chain.
// Non-engine errors map to ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether the error chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}

// Convenience constructors for common error types.

// NotFound creates a not found error.
func NotFound(msg string) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *EngineError {
	return &EngineError{Code: ErrCodeForbidden, Message: msg}
}

// Conflict creates a conflict error.
func Conflict(msg string) *EngineError {
	return &EngineError{Code: ErrCodeConflict, Message: msg}
}

// Conflictf creates a conflict error with a formatted message.
func Conflictf(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Gone creates a gone (expired) error.
func Gone(msg string) *EngineError {
	return &EngineError{Code: ErrCodeGone, Message: msg}
}

// Gonef creates a gone (expired) error with a formatted message.
func Gonef(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeGone, Message: fmt.Sprintf(format, args...)}
}

// Unprocessable creates an unprocessable error.
func Unprocessable(msg string) *EngineError {
	return &EngineError{Code: ErrCodeUnprocessable, Message: msg}
}

// Unprocessablef creates an unprocessable error with a formatted message.
func Unprocessablef(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeUnprocessable, Message: fmt.Sprintf(format, args...)}
}

// InsufficientInventory creates an insufficient inventory error.
func InsufficientInventory(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInsufficientInventory, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: msg}
}

// InvalidArgumentf creates an invalid argument error with a formatted message.
func InvalidArgumentf(format string, args ...any) *EngineError {
	return &EngineError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *EngineError {
	return &EngineError{Code: ErrCodeUnauthorized, Message: msg}
}

// Internal creates an internal error wrapping its cause.
func Internal(msg string, cause error) *EngineError {
	return &EngineError{Code: ErrCodeInternal, Message: msg, Cause: cause}
}
