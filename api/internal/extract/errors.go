package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientContent: the reply did not carry enough items to fill the contract.
	ErrInsufficientContent = errors.New("insufficient content")
	// ErrMissingField: a required scalar could not be recovered from the reply.
	ErrMissingField = errors.New("missing field")
)

// Error describes why a reply could not be turned into a result.
type Error struct {
	Kind   error
	Shape  string
	Field  string
	Detail string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v: %s", e.Shape, e.Kind, e.Field)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// KindName is a short label for metrics.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientContent):
		return "insufficient_content"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	default:
		return "other"
	}
}

func insufficient(shape, field, format string, args ...any) error {
	return &Error{Kind: ErrInsufficientContent, Shape: shape, Field: field, Detail: fmt.Sprintf(format, args...)}
}

func missing(shape, field, format string, args ...any) error {
	return &Error{Kind: ErrMissingField, Shape: shape, Field: field, Detail: fmt.Sprintf(format, args...)}
}
