package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation groups every error caused by malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrInvalidDestination is returned when the destination is not an absolute http(s) URL.
	ErrInvalidDestination = fmt.Errorf("%w: destination must be an absolute http(s) url", ErrValidation)
	// ErrInvalidAlias is returned when the alias contains characters outside [A-Za-z0-9_-].
	ErrInvalidAlias = fmt.Errorf("%w: alias may contain only letters, digits, hyphen and underscore", ErrValidation)
	// ErrInvalidPeriod is returned for an unknown analytics period.
	ErrInvalidPeriod = fmt.Errorf("%w: unknown period", ErrValidation)
	// ErrPasswordRequired is returned when password protection is requested without a password,
	// and, wrapped in a GateError, when a protected link is resolved without one.
	ErrPasswordRequired = errors.New("password required")
	// ErrPasswordIncorrect is returned when the supplied password does not match.
	ErrPasswordIncorrect = errors.New("password incorrect")

	// ErrAliasTaken is returned when the alias collides with an existing token or alias.
	ErrAliasTaken = errors.New("alias taken")
	// ErrTokenExists is returned by storage when a generated token collides with an existing handle.
	ErrTokenExists = errors.New("token exists")

	// ErrLinkNotFound is returned when a handle or id does not resolve to a link.
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkExpired is returned when the link exists but its expiry has passed.
	ErrLinkExpired = errors.New("link expired")
	// ErrForbidden is returned when the caller does not own the link.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when an operation needs an owner identity and none was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStorageUnavailable marks timeouts and connection failures. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// GateError is returned when a password gate blocks resolution.
// It carries the handle so the caller can prompt again.
type GateError struct {
	Handle string
	Err    error
}

func (e *GateError) Error() string {
	return fmt.Sprintf("link %q: %v", e.Handle, e.Err)
}

func (e *GateError) Unwrap() error {
	return e.Err
}
