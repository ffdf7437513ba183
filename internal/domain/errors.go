package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProvider          = errors.New("provider error")
	ErrPipelineExhausted = errors.New("pipeline exhausted")
	ErrTimeout           = errors.New("timeout")
)

// Error pairs one of the sentinel kinds above with a human readable detail and
// an optional underlying cause. errors.Is matches both the kind and the cause.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

// NewError builds an *Error of the given kind.
func NewError(kind error, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: cause}
}

func (e *Error) Error() string {
	if e == nil || e.Kind == nil {
		return "unknown error"
	}
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *Error) Is(target error) bool {
	return e != nil && target == e.Kind
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Category returns the short machine-oriented name of err's kind.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrPipelineExhausted):
		return "pipeline_exhausted"
	case errors.Is(err, ErrProvider):
		return "provider_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// Detail extracts the caller-safe detail message carried by err.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	return err.Error()
}
