package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes for voice_requests_total.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomeIntentError     = "intent_error"
	OutcomeStoreError      = "store_error"
)

// Metrics owns its registry so servers built in tests don't collide on the
// global one.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	intentLatency *prometheus.HistogramVec
	stored        *prometheus.CounterVec
}

// New creates the relay collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_requests_total",
				Help: "Total number of process-voice requests by outcome",
			},
			[]string{"outcome"},
		),
		intentLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "voice_intent_call_duration_seconds",
				Help:    "Duration of intent service calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"result"},
		),
		stored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "voice_interactions_stored_total",
				Help: "Total number of interactions written to the store",
			},
			[]string{"has_intent"},
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.intentLatency,
		m.stored,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Request counts one finished process-voice request.
func (m *Metrics) Request(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

// IntentCall records the latency of one intent service call.
func (m *Metrics) IntentCall(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.intentLatency.WithLabelValues(result).Observe(d.Seconds())
}

// Stored counts one persisted interaction.
func (m *Metrics) Stored(hasIntent bool) {
	label := "false"
	if hasIntent {
		label = "true"
	}
	m.stored.WithLabelValues(label).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
