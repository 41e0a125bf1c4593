// Package apperr is the error taxonomy shared by services and the REST layer.
// Services return *Error values; controllers map Kind to an HTTP status.
package apperr

import (
	"errors"
)

type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidToken
	KindForbidden
	KindNotFound
	KindConflict
	KindUpload
	KindPersistence
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindValidation:      "validation",
	KindUnauthenticated: "unauthenticated",
	KindInvalidToken:    "invalid_token",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindUpload:          "upload",
	KindPersistence:     "persistence",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Error carries a client-safe Message; Err is the internal cause and is never sent to clients.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works for every not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrInvalidToken    = &Error{Kind: KindInvalidToken}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUpload          = &Error{Kind: KindUpload}
	ErrPersistence     = &Error{Kind: KindPersistence}
)

func Validation(msg string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func InvalidToken(msg string, cause error) *Error {
	return &Error{Kind: KindInvalidToken, Message: msg, Err: cause}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Conflict(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}

func Upload(msg string, cause error) *Error {
	return &Error{Kind: KindUpload, Message: msg, Err: cause}
}

func Persistence(msg string, cause error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: cause}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain or wraps err as an internal error.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}
