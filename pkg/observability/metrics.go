package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the BAP.
type Metrics struct {
	registry *prometheus.Registry

	// Signing metrics
	SignaturesTotal *prometheus.CounterVec
	SignDuration    prometheus.Histogram

	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec

	// Inbound metrics
	CallbacksTotal   *prometheus.CounterVec
	RateLimitedTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics on a fresh registry, so several instances
// can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		SignaturesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beckn_signatures_total",
				Help: "Signature attempts for outbound requests",
			},
			[]string{"status"},
		),

		SignDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "beckn_sign_duration_seconds",
				Help:    "Time to canonicalize, digest and sign a payload",
				Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01},
			},
		),

		GatewayRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beckn_gateway_requests_total",
				Help: "Requests forwarded to the Beckn gateway",
			},
			[]string{"action", "status"},
		),

		GatewayRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beckn_gateway_request_duration_seconds",
				Help:    "Gateway round trip time",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),

		CallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beckn_callbacks_total",
				Help: "on_ callbacks received",
			},
			[]string{"action"},
		),

		RateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beckn_rate_limited_total",
				Help: "Inbound requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// RecordSignature records a signing attempt.
func (m *Metrics) RecordSignature(success bool, durationSeconds float64) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.SignaturesTotal.WithLabelValues(status).Inc()
	m.SignDuration.Observe(durationSeconds)
}

// RecordGatewayRequest records a gateway call. status is "ack", "nack",
// "http_<code>" or "error".
func (m *Metrics) RecordGatewayRequest(action, status string, durationSeconds float64) {
	m.GatewayRequestsTotal.WithLabelValues(action, status).Inc()
	m.GatewayRequestDuration.WithLabelValues(action).Observe(durationSeconds)
}

// RecordCallback increments the callback counter for action.
func (m *Metrics) RecordCallback(action string) {
	m.CallbacksTotal.WithLabelValues(action).Inc()
}

// RecordRateLimited increments the rejected request counter.
func (m *Metrics) RecordRateLimited(path string) {
	m.RateLimitedTotal.WithLabelValues(path).Inc()
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the Prometheus metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
