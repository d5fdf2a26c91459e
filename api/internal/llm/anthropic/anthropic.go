package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"study-proxy/api/internal/llm"
)

const (
	DefaultModel = "claude-haiku-4-5-20251001"
	maxTokens    = 4096
)

type Engine struct {
	APIKey string
	Model  string
	client anthropic.Client
}

func New(key, model string, opts ...option.RequestOption) *Engine {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey: key,
		Model:  model,
		client: anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}, opts...)...),
	}
}

func (e *Engine) Name() string     { return "anthropic" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Chat(ctx context.Context, p llm.Prompt) (llm.Reply, error) {
	if e.APIKey == "" {
		return llm.Reply{}, errors.New("ANTHROPIC_API_KEY is empty")
	}

	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(p.Images)+1)
	for _, img := range p.Images {
		blocks = append(blocks, anthropic.NewImageBlockBase64(img.MIME, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, anthropic.NewTextBlock(p.User))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.Model),
		MaxTokens: maxTokens,
		Messages:  []anthropic.MessageParam{anthropic.NewUserMessage(blocks...)},
	}
	if p.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: p.System}}
	}

	msg, err := e.client.Messages.New(ctx, params)
	if err != nil {
		return llm.Reply{}, classify(err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return llm.Reply{}, &llm.ErrUpstreamMalformed{Engine: e.Name(), Err: fmt.Errorf("no text content in response")}
	}
	return llm.Reply{Text: b.String(), Model: string(msg.Model)}, nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		status := apiErr.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		return &llm.ErrUpstreamRejected{Engine: "anthropic", Status: status, Body: apiErr.Error()}
	}
	return &llm.ErrUpstreamUnavailable{Engine: "anthropic", Err: err}
}
