package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"study-proxy/api/internal/llm"
)

const (
	SambaNovaBaseURL     = "https://api.sambanova.ai/v1"
	SambaNovaModel       = "Meta-Llama-3.1-8B-Instruct"
	SambaNovaVisionModel = "Llama-4-Maverick-17B-128E-Instruct"

	maxErrorBody = 2048
)

// Engine talks to any OpenAI-compatible chat-completions API
// (SambaNova, OpenAI, OpenRouter...).
type Engine struct {
	name        string
	APIKey      string
	Model       string
	VisionModel string // used for prompts with images; Model when empty
	cfg         goopenai.ClientConfig
	client      *goopenai.Client
}

func New(name, key, baseURL, model string) *Engine {
	cfg := goopenai.DefaultConfig(key)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Engine{
		name:   name,
		APIKey: key,
		Model:  model,
		cfg:    cfg,
		client: goopenai.NewClientWithConfig(cfg),
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.cfg.HTTPClient = c
		e.client = goopenai.NewClientWithConfig(e.cfg)
	}
	return e
}

// WithVisionModel routes prompts that carry images to m.
func (e *Engine) WithVisionModel(m string) *Engine {
	e.VisionModel = strings.TrimSpace(m)
	return e
}

func (e *Engine) modelFor(p llm.Prompt) string {
	if len(p.Images) > 0 && e.VisionModel != "" {
		return e.VisionModel
	}
	return e.Model
}

func (e *Engine) Name() string     { return e.name }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Chat(ctx context.Context, p llm.Prompt) (llm.Reply, error) {
	if e.APIKey == "" {
		return llm.Reply{}, fmt.Errorf("%s: api key is empty", e.name)
	}

	req := goopenai.ChatCompletionRequest{
		Model:    e.modelFor(p),
		Messages: buildMessages(p),
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Reply{}, e.classify(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Reply{}, &llm.ErrUpstreamMalformed{Engine: e.name, Err: errors.New("no choices in response")}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return llm.Reply{}, &llm.ErrUpstreamMalformed{Engine: e.name, Err: errors.New("choices[0].message.content is empty")}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	return llm.Reply{Text: content, Model: model}, nil
}

func buildMessages(p llm.Prompt) []goopenai.ChatCompletionMessage {
	var messages []goopenai.ChatCompletionMessage
	if p.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: p.System,
		})
	}

	if len(p.Images) == 0 {
		return append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleUser,
			Content: p.User,
		})
	}

	parts := []goopenai.ChatMessagePart{{Type: goopenai.ChatMessagePartTypeText, Text: p.User}}
	for _, img := range p.Images {
		parts = append(parts, goopenai.ChatMessagePart{
			Type: goopenai.ChatMessagePartTypeImageURL,
			ImageURL: &goopenai.ChatMessageImageURL{
				URL:    img.DataURL(),
				Detail: goopenai.ImageURLDetailHigh,
			},
		})
	}
	return append(messages, goopenai.ChatCompletionMessage{
		Role:         goopenai.ChatMessageRoleUser,
		MultiContent: parts,
	})
}

func (e *Engine) classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &llm.ErrUpstreamRejected{Engine: e.name, Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := strings.TrimSpace(llm.TruncateBody(reqErr.Body, maxErrorBody))
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &llm.ErrUpstreamRejected{Engine: e.name, Status: reqErr.HTTPStatusCode, Body: body}
	}

	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &llm.ErrUpstreamMalformed{Engine: e.name, Err: err}
	}

	return &llm.ErrUpstreamUnavailable{Engine: e.name, Err: err}
}
