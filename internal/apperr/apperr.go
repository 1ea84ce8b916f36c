// Package apperr classifies domain failures so the transport layer can translate
// them into status codes without inspecting storage-level errors.
package apperr

import (
	"context"
	"errors"
	"net/http"
)

// Kind sentinels. Every *Error unwraps to exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("unavailable")
)

// Error carries a client-safe message alongside the kind and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Validation reports missing or malformed input.
func Validation(message string) error { return newError(ErrValidation, message, nil) }

// ValidationCause reports malformed input while keeping the cause for logs.
func ValidationCause(message string, cause error) error {
	return newError(ErrValidation, message, cause)
}

// Conflict reports a uniqueness violation.
func Conflict(message string) error { return newError(ErrConflict, message, nil) }

// NotFound reports a missing user, video or channel.
func NotFound(message string) error { return newError(ErrNotFound, message, nil) }

// Unauthorized reports missing, invalid or rejected credentials.
func Unauthorized(message string, cause error) error {
	return newError(ErrUnauthorized, message, cause)
}

// Forbidden reports an authenticated actor acting on a resource it does not own.
func Forbidden(message string) error { return newError(ErrForbidden, message, nil) }

// Unavailable reports a downstream store or blob-store failure.
func Unavailable(message string, cause error) error {
	return newError(ErrUnavailable, message, cause)
}

// Retryable reports whether err stems from an expired deadline or a cancelled request.
func Retryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Status maps err onto an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case Retryable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-safe message for err. Unclassified errors get a generic
// message so storage details never leak.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Kind == ErrUnavailable && Retryable(err) {
			return "service temporarily unavailable, retry later"
		}
		return appErr.Message
	}
	if Retryable(err) {
		return "service temporarily unavailable, retry later"
	}
	return "internal server error"
}
