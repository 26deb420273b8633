package service

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every service. Handlers map these to HTTP statuses.
var (
	ErrUnauthenticated    = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrBadInput           = errors.New("bad input")
	ErrGradingUnavailable = errors.New("ai grading failed")
)

// InputError is a BadInput failure with a client-facing message.
type InputError struct {
	Message string
}

func (e InputError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrBadInput) match.
func (e InputError) Is(target error) bool { return target == ErrBadInput }

// NotFoundError reports a missing resource or one the caller may not see.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrNotFound) match.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ForbiddenError reports a role mismatch.
type ForbiddenError struct {
	Message string
}

func (e ForbiddenError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrForbidden) match.
func (e ForbiddenError) Is(target error) bool { return target == ErrForbidden }

func badInput(format string, args ...interface{}) error {
	return InputError{Message: fmt.Sprintf(format, args...)}
}

func notFound(message string) error {
	return NotFoundError{Message: message}
}

func forbidden(message string) error {
	return ForbiddenError{Message: message}
}
