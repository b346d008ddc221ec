// Package errs defines the typed failure taxonomy shared by every domain
// service: callers branch on the kind, handlers map it to an HTTP status.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	// KindValidation marks malformed input. Never retried.
	KindValidation
	// KindNotFound marks a missing referenced entity.
	KindNotFound
	// KindConflict marks resource contention visible to the caller
	// (occupied bed); the caller must pick another resource.
	KindConflict
	// KindState marks an operation invalid for the entity's current state
	// (discharge of a non-active visit). Indicates a caller logic error.
	KindState
	// KindContention marks exhausted internal retries against a contended
	// row; safe for the caller to retry.
	KindContention
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindContention:
		return "contention"
	default:
		return "internal"
	}
}

// Error carries a kind alongside the message and an optional wrapped cause.
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

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func Statef(format string, args ...interface{}) *Error {
	return newf(KindState, format, args...)
}

func Contentionf(format string, args ...interface{}) *Error {
	return newf(KindContention, format, args...)
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsState(err error) bool      { return KindOf(err) == KindState }
func IsContention(err error) bool { return KindOf(err) == KindContention }

// HTTPStatus maps an error to the response status used by the handlers.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindState:
		return http.StatusUnprocessableEntity
	case KindContention:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
