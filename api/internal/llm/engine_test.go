package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEngine struct{ name string }

func (s stubEngine) Name() string     { return s.name }
func (s stubEngine) GetModel() string { return s.name + "-model" }
func (s stubEngine) Chat(context.Context, Prompt) (Reply, error) {
	return Reply{Text: s.name}, nil
}

func TestEngines_GetEngine(t *testing.T) {
	engs := NewEngines("SambaNova")
	engs.Register(stubEngine{name: "sambanova"})
	engs.Register(stubEngine{name: "openai"})
	engs.Register(nil)

	tests := []struct {
		in   string
		want string
	}{
		{"", "sambanova"},
		{"  OpenAI ", "openai"},
		{"gpt", "openai"},
		{"sambanova", "sambanova"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			eng, err := engs.GetEngine(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, eng.Name())
		})
	}

	_, err := engs.GetEngine("gemini")
	require.ErrorIs(t, err, ErrUnknownEngine)
	require.Contains(t, err.Error(), "openai, sambanova")
	require.Equal(t, []string{"openai", "sambanova"}, engs.Names())
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", Outcome(nil))
	require.Equal(t, "unavailable", Outcome(&ErrUpstreamUnavailable{Engine: "x", Err: errors.New("boom")}))
	require.Equal(t, "rejected", Outcome(fmt.Errorf("wrapped: %w", &ErrUpstreamRejected{Engine: "x", Status: 500})))
	require.Equal(t, "malformed", Outcome(&ErrUpstreamMalformed{Engine: "x"}))
	require.Equal(t, "error", Outcome(errors.New("other")))

	require.True(t, IsUpstream(&ErrUpstreamRejected{}))
	require.False(t, IsUpstream(errors.New("other")))
}

func TestImageDataURL(t *testing.T) {
	img := Image{MIME: "image/jpeg", Data: []byte("hi")}
	require.Equal(t, "data:image/jpeg;base64,aGk=", img.DataURL())
}

func TestTruncateBody(t *testing.T) {
	require.Equal(t, "abc", TruncateBody([]byte("abc"), 5))
	require.Equal(t, "ab...", TruncateBody([]byte("abcdef"), 2))
}
