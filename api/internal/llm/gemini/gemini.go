package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gl "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"

	"study-proxy/api/internal/llm"
)

const DefaultModel = "gemini-2.5-flash"

type Engine struct {
	APIKey string
	Model  string
	opts   []option.ClientOption
}

func New(apiKey, model string, opts ...option.ClientOption) *Engine {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  model,
		opts:   opts,
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Chat(ctx context.Context, p llm.Prompt) (llm.Reply, error) {
	if e.APIKey == "" {
		return llm.Reply{}, errors.New("GEMINI_API_KEY is empty")
	}
	gc, err := gl.NewGenerativeRESTClient(ctx, append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.opts...)...)
	if err != nil {
		return llm.Reply{}, fmt.Errorf("gemini: new client: %w", err)
	}
	defer gc.Close()
	// One Chat is one HTTP call; the REST defaults retry 503s.
	gc.CallOptions.GenerateContent = nil

	resp, err := gc.GenerateContent(ctx, request(e.Model, p))
	if err != nil {
		return llm.Reply{}, classify(err)
	}
	if r := resp.GetPromptFeedback().GetBlockReason(); r != pb.GenerateContentResponse_PromptFeedback_BLOCK_REASON_UNSPECIFIED {
		return llm.Reply{}, &llm.ErrUpstreamMalformed{Engine: e.Name(), Err: fmt.Errorf("prompt blocked: %s", r)}
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return llm.Reply{}, &llm.ErrUpstreamMalformed{Engine: e.Name(), Err: errors.New("no text candidate in response")}
	}
	return llm.Reply{Text: txt, Model: e.Model}, nil
}

func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		body := apiErr.Body
		if strings.TrimSpace(body) == "" {
			body = apiErr.Message
		}
		return &llm.ErrUpstreamRejected{Engine: "gemini", Status: apiErr.Code, Body: llm.TruncateBody([]byte(body), 2048)}
	}
	if ae, ok := apierror.FromError(err); ok {
		status := ae.HTTPCode()
		if status <= 0 && ae.GRPCStatus() != nil {
			status = httpStatusFromCode(ae.GRPCStatus().Code())
		}
		if status > 0 {
			return &llm.ErrUpstreamRejected{Engine: "gemini", Status: status, Body: ae.Error()}
		}
	}
	return &llm.ErrUpstreamUnavailable{Engine: "gemini", Err: err}
}

func httpStatusFromCode(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return 400
	case codes.Unauthenticated:
		return 401
	case codes.PermissionDenied:
		return 403
	case codes.NotFound:
		return 404
	case codes.ResourceExhausted:
		return 429
	case codes.Unavailable:
		return 503
	case codes.DeadlineExceeded:
		return 504
	case codes.Internal, codes.Unknown, codes.DataLoss:
		return 500
	}
	return 0
}

func request(model string, p llm.Prompt) *pb.GenerateContentRequest {
	parts := []*pb.Part{{Data: &pb.Part_Text{Text: p.User}}}
	for _, img := range p.Images {
		parts = append(parts, &pb.Part{Data: &pb.Part_InlineData{InlineData: &pb.Blob{MimeType: img.MIME, Data: img.Data}}})
	}
	req := &pb.GenerateContentRequest{
		Model:    "models/" + model,
		Contents: []*pb.Content{{Role: "user", Parts: parts}},
	}
	if p.System != "" {
		req.SystemInstruction = &pb.Content{Parts: []*pb.Part{{Data: &pb.Part_Text{Text: p.System}}}}
	}
	return req
}

func firstText(resp *pb.GenerateContentResponse) string {
	for _, c := range resp.GetCandidates() {
		var b strings.Builder
		for _, part := range c.GetContent().GetParts() {
			b.WriteString(part.GetText())
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
