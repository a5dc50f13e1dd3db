// Package backenderr defines the error taxonomy shared by all backend
// adapters.
//
// Adapters translate subprocess and file-system failures into this closed
// set of codes at the port boundary. Callers above the port match on codes
// via errors.As / CodeOf and never inspect adapter-specific error shapes.
package backenderr

import (
	"errors"
	"fmt"
)

// Code identifies a category of backend failure. The enumeration is closed;
// do not extend it ad hoc.
type Code string

// Backend error codes.
const (
	NotFound         Code = "NOT_FOUND"
	AlreadyExists    Code = "ALREADY_EXISTS"
	InvalidInput     Code = "INVALID_INPUT"
	Locked           Code = "LOCKED"
	Timeout          Code = "TIMEOUT"
	Unavailable      Code = "UNAVAILABLE"
	PermissionDenied Code = "PERMISSION_DENIED"
	Internal         Code = "INTERNAL"
	Conflict         Code = "CONFLICT"
	RateLimited      Code = "RATE_LIMITED"
)

// IsValid checks if the code is one of the closed enumeration.
func (c Code) IsValid() bool {
	switch c {
	case NotFound, AlreadyExists, InvalidInput, Locked, Timeout,
		Unavailable, PermissionDenied, Internal, Conflict, RateLimited:
		return true
	}
	return false
}

// Error is a backend failure with a stable code and advisory retryability.
type Error struct {
	Code      Code
	Message   string
	Retryable bool
	Err       error // wrapped cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Err }

// New creates a backend error with the given code.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a backend error wrapping an underlying cause.
func Wrap(code Code, err error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFoundf creates a NOT_FOUND error.
func NotFoundf(format string, args ...interface{}) *Error {
	return New(NotFound, format, args...)
}

// Invalidf creates an INVALID_INPUT error.
func Invalidf(format string, args ...interface{}) *Error {
	return New(InvalidInput, format, args...)
}

// Internalf creates an INTERNAL error.
func Internalf(format string, args ...interface{}) *Error {
	return New(Internal, format, args...)
}

// Timeoutf creates a retryable TIMEOUT error.
func Timeoutf(format string, args ...interface{}) *Error {
	e := New(Timeout, format, args...)
	e.Retryable = true
	return e
}

// Unsupported creates the UNAVAILABLE error returned when a backend does not
// support the named operation. This is the uniform capability-violation
// signal; it is never INTERNAL.
func Unsupported(backend, op string) *Error {
	return New(Unavailable, "%s backend does not support %s", backend, op)
}

// CodeOf returns the code carried by err, Internal for non-backend errors,
// and "" for nil.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return Internal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports the advisory retryable flag. The port itself never
// retries based on it; the flag is metadata for callers.
func IsRetryable(err error) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Retryable
	}
	return false
}
