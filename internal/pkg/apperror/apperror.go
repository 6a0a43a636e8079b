// internal/pkg/apperror/apperror.go
package apperror

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind groups error codes by their effect on the caller.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCapacity:
		return "capacity"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to the status code of the response envelope.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindCapacity:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a stable, machine-readable failure surfaced to API callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil && e.cause.Error() != e.Message {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Cause() error { return e.cause }

// Is matches on code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New builds an error carrying a stack trace.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: errors.New(message)}
}

// Wrap attaches a code to cause. A nil cause yields a plain coded error.
func Wrap(cause error, kind Kind, code, message string) *Error {
	if cause == nil {
		return New(kind, code, message)
	}
	return &Error{Kind: kind, Code: code, Message: message, cause: errors.WithStack(cause)}
}

// WithMessage returns a copy of a sentinel with a more specific message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg, cause: errors.New(msg)}
}

// Because returns a copy of a sentinel wrapping cause.
func (e *Error) Because(cause error) *Error {
	return Wrap(cause, e.Kind, e.Code, e.Message)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// From returns err's *Error, or wraps an unexpected error under fallbackCode as internal.
func From(err error, fallbackCode, fallbackMessage string) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := As(err); ok {
		return ae
	}
	return Wrap(err, KindInternal, fallbackCode, fallbackMessage)
}

// Stack renders the error chain with stack frames for debug responses.
func Stack(err error) string {
	return fmt.Sprintf("%+v", err)
}
