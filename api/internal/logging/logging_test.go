package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Opts
		wantErr bool
	}{
		{name: "defaults", opts: Opts{Level: "info", Format: "text"}},
		{name: "json debug", opts: Opts{Level: "DEBUG", Format: "json"}},
		{name: "bad level", opts: Opts{Level: "loud", Format: "text"}, wantErr: true},
		{name: "bad format", opts: Opts{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts, &bytes.Buffer{})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNew_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Opts{Level: "info", Format: FormatJSON}, &buf)
	require.NoError(t, err)

	l.WithField("request_id", "abc").Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "abc", line["request_id"])
	require.Equal(t, "hello", line["msg"])
}

func TestFromContext(t *testing.T) {
	e := logrus.NewEntry(logrus.New()).WithField("endpoint", "/x")
	ctx := WithEntry(context.Background(), e)
	require.Same(t, e, FromContext(ctx))
	require.NotNil(t, FromContext(context.Background()))
}
