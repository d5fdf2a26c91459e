package llm

import (
	"errors"
	"fmt"
)

var ErrUnknownEngine = errors.New("unknown engine")

// ErrUpstreamUnavailable is a network or transport failure talking to the upstream.
type ErrUpstreamUnavailable struct {
	Engine string
	Err    error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Engine, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error { return e.Err }

// ErrUpstreamRejected is a non-2xx answer from the upstream.
type ErrUpstreamRejected struct {
	Engine string
	Status int
	Body   string
}

func (e *ErrUpstreamRejected) Error() string {
	return fmt.Sprintf("%s error %d: %s", e.Engine, e.Status, e.Body)
}

// ErrUpstreamMalformed means the upstream answered 2xx but the envelope
// carried no choices[0].message.content (or its equivalent).
type ErrUpstreamMalformed struct {
	Engine string
	Err    error
}

func (e *ErrUpstreamMalformed) Error() string {
	return fmt.Sprintf("unexpected response structure from %s: %v", e.Engine, e.Err)
}

func (e *ErrUpstreamMalformed) Unwrap() error { return e.Err }

// IsUpstream reports whether err came from the upstream call itself.
func IsUpstream(err error) bool {
	var (
		u *ErrUpstreamUnavailable
		r *ErrUpstreamRejected
		m *ErrUpstreamMalformed
	)
	return errors.As(err, &u) || errors.As(err, &r) || errors.As(err, &m)
}

// Outcome is a short label of err for metrics.
func Outcome(err error) string {
	var (
		u *ErrUpstreamUnavailable
		r *ErrUpstreamRejected
		m *ErrUpstreamMalformed
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &u):
		return "unavailable"
	case errors.As(err, &r):
		return "rejected"
	case errors.As(err, &m):
		return "malformed"
	default:
		return "error"
	}
}

// TruncateBody keeps upstream error bodies readable in logs and responses.
func TruncateBody(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
