package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exposed on /metrics. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	workflowTransitions *prometheus.CounterVec
	fallbackOperations  *prometheus.CounterVec
	aiRequests          *prometheus.CounterVec
	voiceSessions       prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on a private registry
// together with the Go runtime and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faultdesk_http_request_duration_seconds",
				Help:    "Time taken for HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		workflowTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultdesk_workflow_transitions_total",
				Help: "Report workflow transitions that changed state",
			},
			[]string{"action"}, // APPROVE_REPORT, REJECT_REPORT, UPDATE_STATUS
		),
		fallbackOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultdesk_fallback_operations_total",
				Help: "Reads and writes that involved the local fallback cache",
			},
			[]string{"collection", "operation", "outcome"}, // outcome: primary, degraded, failed
		),
		aiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faultdesk_ai_requests_total",
				Help: "Generative AI calls by operation and outcome",
			},
			[]string{"operation", "outcome"}, // outcome: success, cached, disabled, failed
		),
		voiceSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "faultdesk_voice_sessions_active",
				Help: "Voice relay sessions currently open",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.workflowTransitions,
		m.fallbackOperations,
		m.aiRequests,
		m.voiceSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a state-changing workflow action.
func (m *Metrics) RecordTransition(action string) {
	if m == nil {
		return
	}
	m.workflowTransitions.WithLabelValues(action).Inc()
}

// RecordFallback counts a fallback cache interaction.
func (m *Metrics) RecordFallback(collection, operation, outcome string) {
	if m == nil {
		return
	}
	m.fallbackOperations.WithLabelValues(collection, operation, outcome).Inc()
}

// RecordAIRequest counts an AI call.
func (m *Metrics) RecordAIRequest(operation, outcome string) {
	if m == nil {
		return
	}
	m.aiRequests.WithLabelValues(operation, outcome).Inc()
}

// VoiceSessionStarted increments the active voice session gauge.
func (m *Metrics) VoiceSessionStarted() {
	if m == nil {
		return
	}
	m.voiceSessions.Inc()
}

// VoiceSessionEnded decrements the active voice session gauge.
func (m *Metrics) VoiceSessionEnded() {
	if m == nil {
		return
	}
	m.voiceSessions.Dec()
}
