package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jessevdk/go-flags"

	"study-proxy/api/internal/logging"
)

// Engine names.
const (
	SambaNova = "sambanova"
	OpenAI    = "openai"
	Gemini    = "gemini"
	Anthropic = "anthropic"
)

type Opts struct {
	Port   int    `long:"port" env:"PORT" description:"Port to serve HTTP on" default:"8000"`
	Engine string `long:"engine" env:"ENGINE" description:"Default engine: sambanova, openai, gemini, anthropic" default:"sambanova"`

	SambaNovaAPIKey  string `long:"sambanova-api-key" env:"SAMBANOVA_API_KEY" description:"SambaNova API key"`
	SambaNovaBaseURL string `long:"sambanova-base-url" env:"SAMBANOVA_BASE_URL" description:"SambaNova OpenAI-compatible base URL" default:"https://api.sambanova.ai/v1"`
	SambaNovaModel   string `long:"sambanova-model" env:"SAMBANOVA_MODEL" default:"Meta-Llama-3.1-8B-Instruct"`
	SambaNovaVision  string `long:"sambanova-vision-model" env:"SAMBANOVA_VISION_MODEL" description:"SambaNova model for image prompts" default:"Llama-4-Maverick-17B-128E-Instruct"`
	OpenAIAPIKey     string `long:"openai-api-key" env:"OPENAI_API_KEY"`
	OpenAIModel      string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini"`
	GeminiAPIKey     string `long:"gemini-api-key" env:"GEMINI_API_KEY"`
	GeminiModel      string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	AnthropicAPIKey  string `long:"anthropic-api-key" env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string `long:"anthropic-model" env:"ANTHROPIC_MODEL" default:"claude-haiku-4-5-20251001"`

	UpstreamTimeout time.Duration `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" description:"Per-request deadline for the upstream call" default:"180s"`
	MaxUploadBytes  int64         `long:"max-upload-bytes" env:"MAX_UPLOAD_BYTES" description:"Cap on a multipart request body" default:"20971520"`
	UploadDir       string        `long:"upload-dir" env:"UPLOAD_DIR" description:"Directory for per-request temp files (default: OS temp dir)"`
	PromptDir       string        `long:"prompt-dir" env:"PROMPT_DIR" description:"Directory with <name>.txt prompt overrides"`

	DatabaseURL string        `long:"database-url" env:"DATABASE_URL" description:"Postgres DSN; generation log is off when empty"`
	Retention   time.Duration `long:"retention" env:"RETENTION" description:"Drop logged generations older than this; 0 keeps forever" default:"720h"`

	TelegramBotToken string `long:"telegram-bot-token" env:"TELEGRAM_BOT_TOKEN"`
	WebhookURL       string `long:"webhook-url" env:"WEBHOOK_URL" description:"Public base URL; polling is used when empty"`

	Logging logging.Opts `group:"Logging"`
}

// Parse reads flags from args (without the program name) and env.
func Parse(args []string) (*Opts, error) {
	var o Opts
	if _, err := flags.ParseArgs(&o, args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}
	o.Engine = NormalizeEngine(o.Engine)
	return &o, nil
}

// NormalizeEngine maps aliases to engine names.
func NormalizeEngine(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "gpt":
		return OpenAI
	case "claude":
		return Anthropic
	}
	return name
}

// APIKey returns the configured key of the named engine.
func (o *Opts) APIKey(engine string) string {
	switch NormalizeEngine(engine) {
	case SambaNova:
		return o.SambaNovaAPIKey
	case OpenAI:
		return o.OpenAIAPIKey
	case Gemini:
		return o.GeminiAPIKey
	case Anthropic:
		return o.AnthropicAPIKey
	}
	return ""
}

// Validate reports every configuration problem at once. bot enables the
// Telegram requirements.
func (o *Opts) Validate(bot bool) error {
	var result *multierror.Error
	switch o.Engine {
	case SambaNova, OpenAI, Gemini, Anthropic:
		if o.APIKey(o.Engine) == "" {
			result = multierror.Append(result, fmt.Errorf("default engine %s has no API key", o.Engine))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown engine %q", o.Engine))
	}
	if o.Port <= 0 || o.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port %d out of range", o.Port))
	}
	if o.UpstreamTimeout <= 0 {
		result = multierror.Append(result, errors.New("upstream timeout must be > 0"))
	}
	if o.MaxUploadBytes <= 0 {
		result = multierror.Append(result, errors.New("max upload bytes must be > 0"))
	}
	if o.Retention < 0 {
		result = multierror.Append(result, errors.New("retention must be >= 0"))
	}
	if bot && o.TelegramBotToken == "" {
		result = multierror.Append(result, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if o.WebhookURL != "" && !strings.HasPrefix(o.WebhookURL, "https://") {
		result = multierror.Append(result, errors.New("webhook url must be https"))
	}
	return result.ErrorOrNil()
}
