package handle

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"study-proxy/api/internal/httpserver"
	"study-proxy/api/internal/logging"
	"study-proxy/api/internal/metrics"
)

const RequestIDHeader = "X-Request-ID"

var endpoints = map[string]bool{
	"/":                   true,
	"/generate-article":   true,
	"/generate-questions": true,
	"/evaluate-answer":    true,
	"/healthz":            true,
	"/metrics":            true,
}

// Router wires every endpoint behind the request-id/logging/metrics middleware.
func (h *Handle) Router(log *logrus.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Home)
	mux.HandleFunc("/generate-article", h.GenerateArticle)
	mux.HandleFunc("/generate-questions", h.GenerateQuestions)
	mux.HandleFunc("/evaluate-answer", h.EvaluateAnswer)
	mux.HandleFunc("/healthz", httpserver.Health(h.opts.Ping))
	mux.Handle("/metrics", metrics.Handler())
	return Middleware(log, metrics.Get(), mux)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (s *statusWriter) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware tags each request with an id, a scoped log entry and metrics.
func Middleware(log *logrus.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		endpoint := r.URL.Path
		if !endpoints[endpoint] {
			endpoint = "other"
		}
		entry := log.WithFields(logrus.Fields{
			"request_id": id,
			"endpoint":   endpoint,
			"method":     r.Method,
		})
		if e := r.URL.Query().Get("engine"); e != "" {
			entry = entry.WithField("engine", e)
		}
		r = r.WithContext(logging.WithEntry(r.Context(), entry))

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		m.Request(endpoint, sw.code)
		entry.WithFields(logrus.Fields{"status": sw.code, "took": time.Since(start)}).Debug("request done")
	})
}
