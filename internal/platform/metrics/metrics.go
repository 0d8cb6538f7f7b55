// Package metrics exposes Prometheus instrumentation for gateway operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "identity_gateway_operations_total",
				Help: "Total number of identity gateway operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "identity_gateway_operation_duration_seconds",
				Help:    "Identity gateway operation duration in seconds, provider round trips included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(m.OperationsTotal, m.OperationDuration)

	return m
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}
