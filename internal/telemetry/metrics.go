package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ProviderErrors  *prometheus.CounterVec
	CallbacksTotal  *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide Prometheus metrics, registering them
// on first use. Collectors register with the default registry exactly once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_requests_total",
				Help: "Total number of requests by operation, provider, and status",
			},
			[]string{"operation", "provider", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Request duration in seconds by operation and provider",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "provider"},
		),
		ProviderErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_provider_errors_total",
				Help: "Total provider API errors by provider and error type",
			},
			[]string{"provider", "error_type"},
		),
		CallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_callbacks_total",
				Help: "Inbound provider callbacks by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
	}
}

// RecordRequest records a request metric.
func (m *Metrics) RecordRequest(operation, provider, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, provider, status).Inc()
	m.RequestDuration.WithLabelValues(operation, provider).Observe(duration)
}

// RecordError records a provider error metric.
func (m *Metrics) RecordError(provider, errorType string) {
	m.ProviderErrors.WithLabelValues(provider, errorType).Inc()
}

// RecordCallback records an inbound callback outcome.
func (m *Metrics) RecordCallback(provider, outcome string) {
	m.CallbacksTotal.WithLabelValues(provider, outcome).Inc()
}
