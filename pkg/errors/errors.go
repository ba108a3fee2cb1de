// Package errors provides structured error types for snakedraw.
//
// Errors carry a machine-readable Code so the web and CLI surfaces can
// map them to status codes and messages without string matching:
//   - INVALID_INPUT: a draw or setting was rejected before anything ran
//   - NOT_FOUND: an unknown draw or settings key
//   - CONFLICT: the operation is not allowed in the draw's current state
//   - INTERNAL_ERROR: anything unexpected, usually a storage failure
//
// # Usage
//
//	err := errors.New(errors.ErrCodeConflict, "draw %s is already running", id)
//	if errors.Is(err, errors.ErrCodeConflict) {
//	    // Handle state error
//	}
//
//	// Validation failures also carry a short reason token
//	err := errors.Invalid("empty", "please enter at least one name")
//	errors.Reason(err) // "empty"
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeConflict     Code = "CONFLICT"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// ValidationError reports rejected input. Reason is a short stable token
// (e.g. "empty", "count-exceeds-names") that callers can switch on.
type ValidationError struct {
	Reason  string
	Message string
}

// Invalid creates a ValidationError with the given reason and message.
func Invalid(reason string, format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrCodeInvalidInput, e.Message, e.Reason)
}

// Code returns the error code for this error type.
func (e *ValidationError) Code() Code {
	return ErrCodeInvalidInput
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or *ValidationError.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Code()
	}
	return ""
}

// Reason returns the validation reason carried by err, or "" if err is
// not a validation error.
func Reason(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Reason
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For coded errors, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	return err.Error()
}
