package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Companion metrics
var (
	// HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "luna",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Pipeline stage duration
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "luna",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"pipeline", "stage"},
	)

	// Terminal outcomes: chat/photo for conversations, saved/blocked/error for images
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Total pipeline runs by outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	// Stage fallbacks taken after an upstream failure
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "pipeline",
			Name:      "fallbacks_total",
			Help:      "Total fallback replies or defaults used",
		},
		[]string{"stage"},
	)

	// Model calls
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "luna",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Total model calls",
		},
		[]string{"operation", "status"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "luna",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Model call duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordStage records a pipeline stage run
func RecordStage(pipeline, stage string, durationSec float64) {
	StageDuration.WithLabelValues(pipeline, stage).Observe(durationSec)
}

// RecordOutcome records a finished pipeline run
func RecordOutcome(pipeline, outcome string) {
	OutcomesTotal.WithLabelValues(pipeline, outcome).Inc()
}

// RecordFallback records a stage falling back to its default
func RecordFallback(stage string) {
	FallbacksTotal.WithLabelValues(stage).Inc()
}

// RecordLLMCall records a model call
func RecordLLMCall(operation string, err error, durationSec float64) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMCallsTotal.WithLabelValues(operation, status).Inc()
	LLMCallDuration.WithLabelValues(operation).Observe(durationSec)
}
