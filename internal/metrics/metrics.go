package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors exported by the booking service.
type Metrics struct {
	// HTTPRequestsTotal counts requests by method, route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration *prometheus.HistogramVec

	// BookingsTotal counts lifecycle operations by operation and outcome
	// (success, validation, conflict, not_found, unauthorized, infrastructure, unexpected).
	BookingsTotal *prometheus.CounterVec

	// ConflictChecksTotal counts conflict detector evaluations by result (free, conflict).
	ConflictChecksTotal *prometheus.CounterVec

	// ResourceLockDuration observes time spent acquiring per-resource locks.
	ResourceLockDuration *prometheus.HistogramVec
}

// NewWithRegistry registers the collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking lifecycle operations",
			},
			[]string{"operation", "outcome"},
		),
		ConflictChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "booking_conflict_checks_total",
				Help: "Total number of interval conflict checks",
			},
			[]string{"result"},
		),
		ResourceLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resource_lock_duration_seconds",
				Help:    "Time spent acquiring per-resource booking locks",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.ConflictChecksTotal,
		m.ResourceLockDuration,
	)

	return m
}

// BookingOutcome records the result of a lifecycle operation.
func (m *Metrics) BookingOutcome(operation, outcome string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(operation, outcome).Inc()
}

// ConflictChecked records a conflict detector evaluation.
func (m *Metrics) ConflictChecked(conflict bool) {
	if m == nil {
		return
	}
	result := "free"
	if conflict {
		result = "conflict"
	}
	m.ConflictChecksTotal.WithLabelValues(result).Inc()
}

// LockAcquired records how long acquiring a resource lock took.
func (m *Metrics) LockAcquired(wait time.Duration, acquired bool) {
	if m == nil {
		return
	}
	status := "acquired"
	if !acquired {
		status = "failed"
	}
	m.ResourceLockDuration.WithLabelValues(status).Observe(wait.Seconds())
}
