package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once
	m    *Metrics
)

type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	upstreamSeconds    *prometheus.HistogramVec
	extractionFailures *prometheus.CounterVec
}

// Get returns the process-wide collectors, registering them on first use.
func Get() *Metrics {
	once.Do(func() {
		m = &Metrics{
			requestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "study_proxy_requests_total",
					Help: "HTTP requests by endpoint and status code",
				},
				[]string{"endpoint", "code"},
			),
			upstreamSeconds: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "study_proxy_upstream_duration_seconds",
					Help:    "Duration of upstream chat calls",
					Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 180},
				},
				[]string{"engine", "outcome"},
			),
			extractionFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "study_proxy_extraction_failures_total",
					Help: "Model replies that could not be reshaped into the response contract",
				},
				[]string{"shape", "kind"},
			),
		}
	})
	return m
}

func (m *Metrics) Request(endpoint string, code int) {
	m.requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

func (m *Metrics) Upstream(engine, outcome string, d time.Duration) {
	m.upstreamSeconds.WithLabelValues(engine, outcome).Observe(d.Seconds())
}

func (m *Metrics) ExtractionFailure(shape, kind string) {
	m.extractionFailures.WithLabelValues(shape, kind).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
