package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tournevent/shipscan/pkg/token"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec
	TokenRequests   *prometheus.CounterVec
}

// NewMetrics creates Prometheus metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipscan_requests_total",
				Help: "Total number of requests by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipscan_request_duration_seconds",
				Help:    "Request duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipscan_upstream_errors_total",
				Help: "Total ERP and carrier errors by upstream and error type",
			},
			[]string{"upstream", "error_type"},
		),
		TokenRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipscan_token_requests_total",
				Help: "Token cache lookups by service and outcome",
			},
			[]string{"service", "outcome"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records an upstream error metric.
func (m *Metrics) RecordError(upstream, errorType string) {
	m.UpstreamErrors.WithLabelValues(upstream, errorType).Inc()
}

// ObserveToken counts a token cache outcome. It matches the signature
// expected by token.WithObserver.
func (m *Metrics) ObserveToken(service token.ServiceKey, outcome token.Outcome) {
	m.TokenRequests.WithLabelValues(service.String(), string(outcome)).Inc()
}
