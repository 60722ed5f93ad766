package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecordOutcomes(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)

	m.BookingOutcome("create", "success")
	m.BookingOutcome("create", "success")
	m.BookingOutcome("create", "conflict")
	m.ConflictChecked(true)
	m.ConflictChecked(false)
	m.ConflictChecked(false)
	m.LockAcquired(5*time.Millisecond, true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("create", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictChecksTotal.WithLabelValues("conflict")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConflictChecksTotal.WithLabelValues("free")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ResourceLockDuration))
}

func TestNilMetricsIsSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.BookingOutcome("update", "success")
		m.ConflictChecked(true)
		m.LockAcquired(time.Second, false)
	})
}
