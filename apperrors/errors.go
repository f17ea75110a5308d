// Package apperrors holds the error taxonomy shared by every handler.
// Domain errors wrap one of the kind sentinels so callers can classify them
// with errors.Is while still matching the specific error.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kinds
var (
	ErrUnauthenticated = errors.New("user is not authenticated")
	ErrForbidden       = errors.New("you do not have permission to perform this action")
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
)

// InternalMessage is the only text clients see for unclassified failures.
const InternalMessage = "internal server error"

// Error is a domain error with a client-facing message.
type Error struct {
	kind error
	msg  string
}

func New(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Newf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

// Invalid is shorthand for an InvalidArgument error.
func Invalid(format string, args ...any) *Error {
	return Newf(ErrInvalidArgument, format, args...)
}

// Status maps err to the HTTP status code it is reported with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client. Unclassified errors
// (driver failures, bugs) never leak their text.
func Message(err error) string {
	if Status(err) == http.StatusInternalServerError {
		return InternalMessage
	}
	return err.Error()
}
