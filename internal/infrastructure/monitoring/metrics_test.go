package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordTrap("irq", time.Microsecond)
	m.RecordIRQ(1)
	m.RecordEOI("primary")
	m.RecordEOI("primary")
	m.RecordSyscall(1, "ok")
	m.RecordRequest("file", "issued")
	m.SetLiveHandles(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Traps.WithLabelValues("irq")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IRQs.WithLabelValues("1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EOIs.WithLabelValues("primary")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Syscalls.WithLabelValues("1", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("file", "issued")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LiveHandles))
}

func TestIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.IncIdle()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.IdleLoops))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.IdleLoops))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTrap("boot", 0)
		m.RecordIRQ(0)
		m.RecordEOI("secondary")
		m.RecordRequest("http", "unmatched")
		m.IncIdle()
	})
}
