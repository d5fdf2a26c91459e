package service

import (
	"errors"
	"fmt"
)

var ErrInvalidInput = errors.New("invalid input")

// InputError is a request rejected before any upstream call.
type InputError struct {
	Field string
	Msg   string
	Err   error
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidInput, e.Err}
	}
	return []error{ErrInvalidInput}
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Msg: fmt.Sprintf(format, args...)}
}
