// Package common defines shared constants and the error taxonomy used across
// the postboard server. Callers should match errors with errors.Is: every
// domain error unwraps to exactly one kind sentinel.
package common

import "errors"

var (
	// Kind sentinels. The HTTP boundary maps each kind to a status code.
	ErrorBadRequest   = errors.New("bad request")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorNotFound     = errors.New("not found")
	ErrorInternal     = errors.New("internal error")

	// Token errors produced by signature/expiry validation.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Error is a domain error carrying a human-readable message and the kind it
// belongs to.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind so that errors.Is(err, ErrorBadRequest) works.
func (e *Error) Unwrap() error { return e.Kind }

// NewError builds a domain error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Account errors.
var (
	ErrUserAlreadyExists  = NewError(ErrorBadRequest, "user with such username or email already exists")
	ErrUserNotFound       = NewError(ErrorBadRequest, "user does not exist")
	ErrInvalidCredentials = NewError(ErrorBadRequest, "invalid password")
	ErrInvalidInput       = NewError(ErrorBadRequest, "invalid input")
)

// Post errors.
var (
	ErrPostNotFound = NewError(ErrorNotFound, "post not found")
	ErrNotPostOwner = NewError(ErrorForbidden, "post belongs to another user")
	ErrForeignImage = NewError(ErrorForbidden, "image belongs to another user")
)

// KindOf returns the kind sentinel err belongs to. Errors outside the taxonomy
// are reported as ErrorInternal.
func KindOf(err error) error {
	for _, kind := range []error{ErrorBadRequest, ErrorUnauthorized, ErrorForbidden, ErrorNotFound} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrorInternal
}
