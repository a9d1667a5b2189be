package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the only error shape handed to the HTTP layer: a status code, a short
// machine-readable code, a human message and an optional typed details payload.
type Error struct {
	Status  int
	Code    string
	Message string
	Details Details
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetails returns a copy of e carrying the given payload.
func (e *Error) WithDetails(d Details) *Error {
	out := *e
	out.Details = d
	return &out
}

// Wrap records the underlying cause without changing what callers see.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.cause = cause
	return &out
}

func newError(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func NotFound(resource, id string) *Error {
	return newError(http.StatusNotFound, "not_found", resource+" not found").
		WithDetails(ResourceDetails{Resource: resource, ID: id})
}

func Conflict(message string) *Error {
	return newError(http.StatusConflict, "conflict", message)
}

func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "bad_request", message)
}

func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, "forbidden", message)
}

func Internal(message string) *Error {
	return newError(http.StatusInternalServerError, "internal_error", message)
}

// Validation builds a 400 carrying per-field messages.
func Validation(fields ...FieldError) *Error {
	return newError(http.StatusBadRequest, "validation_failed", "validation failed").
		WithDetails(FieldErrors{Fields: fields})
}

// Invalid is shorthand for a single-field validation failure.
func Invalid(field, message string) *Error {
	return Validation(FieldError{Field: field, Message: message})
}

// As reports whether err already is a classified *Error.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Classify returns err as an *Error: classified errors pass through, storage
// errors are translated and anything else becomes a generic 500.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if storageErr, ok := fromStorage(err); ok {
		return storageErr
	}
	return Internal("internal server error").Wrap(err)
}

// IsStatus reports whether err classifies to the given HTTP status.
func IsStatus(err error, status int) bool {
	if err == nil {
		return false
	}
	return Classify(err).Status == status
}
