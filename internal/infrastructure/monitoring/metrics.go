package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the executive's Prometheus collectors. Each instance owns
// its registry so several kernels can coexist in one process. All methods
// are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	// Trap metrics
	Traps       *prometheus.CounterVec
	IRQs        *prometheus.CounterVec
	EOIs        *prometheus.CounterVec
	Syscalls    *prometheus.CounterVec
	Exceptions  *prometheus.CounterVec
	TrapLatency *prometheus.HistogramVec

	// Session metrics
	Requests      *prometheus.CounterVec
	Completions   *prometheus.CounterVec
	LiveHandles   prometheus.Gauge
	IdleLoops     prometheus.Counter
	Redraws       prometheus.Counter
	ModulesLoaded prometheus.Gauge

	// Monitor API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector with a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		Traps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_traps_total",
				Help: "Total number of traps dispatched by class",
			},
			[]string{"class"},
		),
		IRQs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_irqs_total",
				Help: "Hardware interrupts forwarded to the session by line",
			},
			[]string{"line"},
		),
		EOIs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_eoi_total",
				Help: "End-of-interrupt acknowledgements by controller",
			},
			[]string{"controller"},
		),
		Syscalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_syscalls_total",
				Help: "System calls by number and status",
			},
			[]string{"number", "status"},
		),
		Exceptions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_exceptions_total",
				Help: "CPU exceptions by vector",
			},
			[]string{"vector"},
		),
		TrapLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_trap_duration_seconds",
				Help:    "Time spent inside a trap handler",
				Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
			},
			[]string{"class"},
		),

		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_requests_total",
				Help: "Resource requests by scheme and outcome",
			},
			[]string{"scheme", "outcome"},
		),
		Completions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_completions_total",
				Help: "Continuations delivered by scheme",
			},
			[]string{"scheme"},
		),
		LiveHandles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_live_handles",
				Help: "Handles transferred across the trap boundary and not yet taken",
			},
		),
		IdleLoops: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_idle_iterations_total",
				Help: "Idle loop iterations",
			},
		),
		Redraws: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "display_redraws_total",
				Help: "Display repaints",
			},
		),
		ModulesLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "session_modules",
				Help: "Modules in the registry",
			},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "monitor_http_requests_total",
				Help: "Monitor API requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "monitor_http_request_duration_seconds",
				Help:    "Monitor API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "kernel_uptime_seconds",
			Help: "Seconds since the collector was created",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordTrap records one dispatched trap.
func (m *Metrics) RecordTrap(class string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Traps.WithLabelValues(class).Inc()
	m.TrapLatency.WithLabelValues(class).Observe(duration.Seconds())
}

// RecordIRQ records an interrupt forwarded for line.
func (m *Metrics) RecordIRQ(line uint8) {
	if m == nil {
		return
	}
	m.IRQs.WithLabelValues(strconv.Itoa(int(line))).Inc()
}

// RecordEOI records an acknowledgement to "primary" or "secondary".
func (m *Metrics) RecordEOI(controller string) {
	if m == nil {
		return
	}
	m.EOIs.WithLabelValues(controller).Inc()
}

// RecordSyscall records a system call.
func (m *Metrics) RecordSyscall(number uint32, status string) {
	if m == nil {
		return
	}
	m.Syscalls.WithLabelValues(strconv.FormatUint(uint64(number), 16), status).Inc()
}

// RecordException records a CPU exception.
func (m *Metrics) RecordException(vector uint32) {
	if m == nil {
		return
	}
	m.Exceptions.WithLabelValues(strconv.FormatUint(uint64(vector), 16)).Inc()
}

// RecordRequest records a resource request outcome: "issued",
// "unfocused" or "unmatched".
func (m *Metrics) RecordRequest(scheme, outcome string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(scheme, outcome).Inc()
}

// RecordCompletion records a delivered response.
func (m *Metrics) RecordCompletion(scheme string) {
	if m == nil {
		return
	}
	m.Completions.WithLabelValues(scheme).Inc()
}

// SetLiveHandles sets the outstanding handle count.
func (m *Metrics) SetLiveHandles(n int) {
	if m == nil {
		return
	}
	m.LiveHandles.Set(float64(n))
}

// IncIdle records one idle loop iteration and its redraw.
func (m *Metrics) IncIdle() {
	if m == nil {
		return
	}
	m.IdleLoops.Inc()
	m.Redraws.Inc()
}

// SetModules sets the registry size.
func (m *Metrics) SetModules(n int) {
	if m == nil {
		return
	}
	m.ModulesLoaded.Set(float64(n))
}

// RecordHTTPRequest records a monitor API request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
