// Package apperr defines the error kinds returned by workflow operations.
//
// Every rejected operation returns one of these kinds so that the HTTP layer
// can map it to a status code without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindUnknown       Kind = "UNKNOWN"
	KindAuthorization Kind = "FORBIDDEN"
	KindPrecondition  Kind = "PRECONDITION_FAILED"
	KindValidation    Kind = "VALIDATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND"
	KindConflict      Kind = "CONFLICT"
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Field names the offending input field for validation errors, if any.
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, apperr.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrForbidden    = &Error{Kind: KindAuthorization}
	ErrPrecondition = &Error{Kind: KindPrecondition}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
)

// Forbidden creates an authorization error.
func Forbidden(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

// Precondition creates an error for an entity that is not in the state the
// requested transition expects.
func Precondition(message string) *Error {
	return &Error{Kind: KindPrecondition, Message: message}
}

// Preconditionf is Precondition with formatting.
func Preconditionf(format string, args ...any) *Error {
	return Precondition(fmt.Sprintf(format, args...))
}

// Validation creates an input validation error.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Validationf is Validation with formatting.
func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

// FieldValidation creates a validation error bound to a named input field.
func FieldValidation(field, message string) *Error {
	return &Error{Kind: KindValidation, Message: message, Field: field}
}

// NotFound creates a not-found error for the named resource.
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Conflict creates a conflict error.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the HTTP status code a handler should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindAuthorization:
		return http.StatusForbidden
	case KindPrecondition, KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
