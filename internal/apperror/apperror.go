// Package apperror defines the coded errors shared by the service, core and handler layers.
//
// Services return typed errors and handlers translate them with HTTPStatus:
//
//	if userID == "" {
//	    return nil, apperror.InvalidArgument("user ID is required")
//	}
//
//	if errors.Is(err, apperror.ErrStorage) { ... }
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code
type Code string

const (
	CodeInvalidArgument Code = "VALIDATION_ERROR"
	CodeNotFound        Code = "NOT_FOUND"
	CodeStorage         Code = "STORAGE_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeForbidden       Code = "FORBIDDEN"
)

// HTTPStatus returns the HTTP status code for an error code
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a coded error with an optional wrapped cause
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks
var (
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrStorage         = &Error{Code: CodeStorage, Message: "storage error"}
	ErrInternal        = &Error{Code: CodeInternal, Message: "internal error"}
	ErrForbidden       = &Error{Code: CodeForbidden, Message: "forbidden"}
)

// InvalidArgument creates a validation error
func InvalidArgument(msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

// InvalidArgumentf creates a validation error with a formatted message
func InvalidArgumentf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf creates a not found error with a formatted message
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden creates a forbidden error
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Storage wraps a persistence failure
func Storage(msg string, cause error) *Error {
	return &Error{Code: CodeStorage, Message: msg, cause: cause}
}

// CodeOf extracts the code of err, defaulting to CodeInternal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
