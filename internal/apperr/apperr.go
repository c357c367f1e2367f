// Package apperr classifies service errors so handlers can map them to HTTP
// status codes without inspecting message strings.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error category.
type Kind int

const (
	// Internal covers unclassified and store-layer failures.
	Internal Kind = iota
	// Validation means missing or malformed input.
	Validation
	// NotFound means a referenced entity is absent.
	NotFound
	// Conflict means a uniqueness constraint was hit.
	Conflict
	// Unauthorized means credentials did not check out.
	Unauthorized
)

// Error carries a kind, a caller-facing message, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf builds a validation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorizedf builds an unauthorized error.
func Unauthorizedf(format string, args ...any) error {
	return &Error{Kind: Unauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Persistence wraps a store error with a caller-facing message. The cause is
// kept for logs; handlers must not echo it to clients.
func Persistence(msg string, err error) error {
	return &Error{Kind: Internal, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Internal when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the caller-facing message of err without the wrapped cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "server error"
}
