package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")

	// ErrInvalidParent is a validation subtype: a comment parent that is
	// missing or belongs to another document.
	ErrInvalidParent = fmt.Errorf("%w: parent comment", ErrInvalid)
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsDenied reports whether err should surface as a permission failure.
// Denied and not-found are deliberately interchangeable on share surfaces
// so callers never learn whether the resource exists.
func IsDenied(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound)
}
