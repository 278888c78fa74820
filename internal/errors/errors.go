// Package errors defines the coded errors the note service returns to its
// callers. Each Code maps to one HTTP status; lower layers keep their own
// sentinels and are translated into these at the service boundary.
//
//	if errors.Is(err, notetree.ErrNodeNotFound) {
//	    return domainerrors.Wrap(err, domainerrors.CodeNotFound, "node not found")
//	}
//
//	if errors.Is(err, domainerrors.ErrMalformedDocument) {
//	    // stored tree is corrupt, not a legitimate miss
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Is and As are re-exported so callers importing this package under its
// default name still reach the standard helpers.
var (
	Is = errors.Is
	As = errors.As
)

// Code is a machine-readable error code carried in API responses.
type Code string

// Error codes.
const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeAlreadyExists     Code = "ALREADY_EXISTS"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeValidation        Code = "VALIDATION"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL"
	CodeMalformedDocument Code = "MALFORMED_DOCUMENT"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeTokenExpired      Code = "TOKEN_EXPIRED"
	CodeUnavailable       Code = "UNAVAILABLE"
)

var statusByCode = map[Code]int{
	CodeNotFound:      http.StatusNotFound,
	CodeAlreadyExists: http.StatusConflict,
	CodeConflict:      http.StatusConflict,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeTokenExpired:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeValidation:    http.StatusBadRequest,
	CodeRateLimited:   http.StatusTooManyRequests,
	CodeUnavailable:   http.StatusServiceUnavailable,
}

// HTTPStatus returns the HTTP status for c. Unknown codes, internal errors
// and malformed documents are all 500.
func (c Code) HTTPStatus() int {
	if status, ok := statusByCode[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Error is a coded error with a client-safe message and optional details.
// The cause, if any, stays reachable through errors.Is and errors.As but is
// never put on the wire.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinels for errors.Is. Only the code is compared.
var (
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrAlreadyExists     = New(CodeAlreadyExists, "already exists")
	ErrUnauthorized      = New(CodeUnauthorized, "unauthorized")
	ErrValidation        = New(CodeValidation, "validation error")
	ErrConflict          = New(CodeConflict, "conflict")
	ErrInternal          = New(CodeInternal, "internal error")
	ErrMalformedDocument = New(CodeMalformedDocument, "malformed document")
	ErrRateLimited       = New(CodeRateLimited, "rate limit exceeded")
	ErrUnavailable       = New(CodeUnavailable, "unavailable")
)

// New creates an error with the given code.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error { return New(CodeNotFound, msg) }

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error { return Newf(CodeNotFound, format, args...) }

// Validation creates a validation error.
func Validation(msg string) *Error { return New(CodeValidation, msg) }

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error { return Newf(CodeValidation, format, args...) }

// ValidationWithDetails creates a validation error with per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return Validation(msg).WithDetails(details)
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error { return New(CodeConflict, msg) }

// MalformedDocument creates a malformed document error.
func MalformedDocument(msg string) *Error { return New(CodeMalformedDocument, msg) }

// Internal creates an internal error.
func Internal(msg string) *Error { return New(CodeInternal, msg) }
