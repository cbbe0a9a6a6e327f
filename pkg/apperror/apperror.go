// Package apperror defines the error taxonomy shared by services and the
// HTTP layer. Services return *Error values; the HTTP layer maps Kind to a
// status code and never exposes the wrapped cause to clients.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Internal Kind = iota
	Validation
	InvalidCredentials
	SessionInvalid
	SessionExpired
	Forbidden
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case InvalidCredentials:
		return "invalid_credentials"
	case SessionInvalid:
		return "session_invalid"
	case SessionExpired:
		return "session_expired"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status for k.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case InvalidCredentials, SessionInvalid, SessionExpired:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps request field names to messages for Validation errors.
	Fields map[string]string
	// Err is the underlying cause. It is logged, never sent to clients.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Message == "" && t.Err == nil && t.Fields == nil
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrValidation         = &Error{Kind: Validation}
	ErrInvalidCredentials = &Error{Kind: InvalidCredentials}
	ErrSessionInvalid     = &Error{Kind: SessionInvalid}
	ErrSessionExpired     = &Error{Kind: SessionExpired}
	ErrForbidden          = &Error{Kind: Forbidden}
	ErrNotFound           = &Error{Kind: NotFound}
	ErrConflict           = &Error{Kind: Conflict}
	ErrInternal           = &Error{Kind: Internal}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Invalid builds a Validation error from a field → message map.
func Invalid(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: "Validation failed", Fields: fields}
}

// InvalidField is Invalid for a single field.
func InvalidField(field, message string) *Error {
	return Invalid(map[string]string{field: message})
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies a storage or runtime failure as Internal. The message is
// the one clients see; err is kept for logs.
func Wrap(err error, message string) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// From returns err as an *Error, treating anything unclassified as Internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: Internal, Message: "Internal Server Error", Err: err}
}

// KindOf reports the Kind of err (Internal when unclassified).
func KindOf(err error) Kind {
	return From(err).Kind
}
