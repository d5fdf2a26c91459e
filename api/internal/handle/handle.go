package handle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"study-proxy/api/internal/extract"
	"study-proxy/api/internal/llm"
	"study-proxy/api/internal/logging"
	"study-proxy/api/internal/service"
)

// Generator is the generation pipeline behind the endpoints.
type Generator interface {
	Article(ctx context.Context, engine, topic string) (extract.ArticleResult, error)
	Questions(ctx context.Context, engine string, in service.QuestionsInput) (extract.QuestionSet, error)
	Evaluate(ctx context.Context, engine string, in service.EvaluateInput) (extract.EvaluationResult, error)
}

type Options struct {
	Timeout        time.Duration
	MaxUploadBytes int64
	UploadDir      string
	// Ping checks the store for /healthz; nil when no store is configured.
	Ping func(context.Context) error
}

type Handle struct {
	gen  Generator
	opts Options
}

func New(gen Generator, opts Options) *Handle {
	if opts.Timeout <= 0 {
		opts.Timeout = 180 * time.Second
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	return &Handle{gen: gen, opts: opts}
}

const Welcome = "Welcome to the Article Generator API!"

func (h *Handle) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Welcome))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	log := logging.FromContext(r.Context()).WithField("status", code)
	if code >= http.StatusInternalServerError {
		log.Error(msg)
	} else {
		log.Warn(msg)
	}
	writeJSON(w, code, errorBody{Error: msg})
}

// fail maps a pipeline error to its status code.
func fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooBig):
		writeError(w, r, http.StatusBadRequest, "upload too large")
	case llm.IsUpstream(err):
		writeError(w, r, http.StatusBadGateway, op+" error: "+err.Error())
	case errors.Is(err, extract.ErrInsufficientContent), errors.Is(err, extract.ErrMissingField):
		writeError(w, r, http.StatusBadGateway, op+" error: "+err.Error())
	default:
		logging.FromContext(r.Context()).WithError(err).Error(op + " failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func postOnly(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "POST only")
		return false
	}
	return true
}

func (h *Handle) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.opts.Timeout)
}
