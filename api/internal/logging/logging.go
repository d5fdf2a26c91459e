package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Opts holds logging configuration options.
type Opts struct {
	Level  string `long:"log-level" env:"LOG_LEVEL" description:"Log level: debug, info, warn, error" default:"info"`
	Format string `long:"log-format" env:"LOG_FORMAT" description:"Log format: json, text" default:"text"`
}

// New builds a logger writing to w.
func New(opts Opts, w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	case FormatText, "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unrecognized log format: %s", opts.Format)
	}
	return l, nil
}

// Init configures the standard logrus logger and returns it.
func Init(opts Opts) (*logrus.Logger, error) {
	l, err := New(opts, os.Stderr)
	if err != nil {
		return nil, err
	}
	std := logrus.StandardLogger()
	std.SetOutput(l.Out)
	std.SetLevel(l.GetLevel())
	std.SetFormatter(l.Formatter)
	return std, nil
}

type ctxKey struct{}

// WithEntry stores a request-scoped entry in ctx.
func WithEntry(ctx context.Context, e *logrus.Entry) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// FromContext returns the request-scoped entry, or one on the standard logger.
func FromContext(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
		return e
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
