package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("SAMBANOVA_API_KEY", "k")
	o, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, 8000, o.Port)
	require.Equal(t, SambaNova, o.Engine)
	require.Equal(t, "https://api.sambanova.ai/v1", o.SambaNovaBaseURL)
	require.Equal(t, "Meta-Llama-3.1-8B-Instruct", o.SambaNovaModel)
	require.Equal(t, "Llama-4-Maverick-17B-128E-Instruct", o.SambaNovaVision)
	require.Equal(t, 180*time.Second, o.UpstreamTimeout)
	require.Equal(t, "info", o.Logging.Level)
	require.NoError(t, o.Validate(false))
}

func TestParse_EnvAndFlags(t *testing.T) {
	t.Setenv("ENGINE", "GPT")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("LOG_FORMAT", "json")
	o, err := Parse([]string{"--port", "9090", "--upstream-timeout", "30s"})
	require.NoError(t, err)
	require.Equal(t, OpenAI, o.Engine)
	require.Equal(t, 9090, o.Port)
	require.Equal(t, 30*time.Second, o.UpstreamTimeout)
	require.Equal(t, "json", o.Logging.Format)
	require.NoError(t, o.Validate(false))
}

func TestParse_BadFlag(t *testing.T) {
	_, err := Parse([]string{"--no-such-flag"})
	require.Error(t, err)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	o := &Opts{
		Port:            0,
		Engine:          Gemini,
		UpstreamTimeout: 0,
		MaxUploadBytes:  1,
		WebhookURL:      "http://insecure",
	}
	err := o.Validate(true)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 5)
	require.Contains(t, err.Error(), "default engine gemini has no API key")
	require.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN is required")
}

func TestValidate_UnknownEngine(t *testing.T) {
	o := &Opts{Port: 8000, Engine: "mistral", UpstreamTimeout: time.Second, MaxUploadBytes: 1}
	require.ErrorContains(t, o.Validate(false), `unknown engine "mistral"`)
}

func TestAPIKey(t *testing.T) {
	o := &Opts{SambaNovaAPIKey: "s", OpenAIAPIKey: "o", GeminiAPIKey: "g", AnthropicAPIKey: "a"}
	require.Equal(t, "s", o.APIKey("sambanova"))
	require.Equal(t, "o", o.APIKey("gpt"))
	require.Equal(t, "g", o.APIKey(" Gemini "))
	require.Equal(t, "a", o.APIKey("claude"))
	require.Empty(t, o.APIKey("x"))
}
