package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrProbePending = errors.New("half-open probe already in flight")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker
	Threshold uint32
	// Cooldown is how long the breaker stays open before allowing a probe
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
	// Now overrides the clock; tests use it to skip the cooldown
	Now func() time.Time
}

// Counts holds the statistics for the circuit breaker
type Counts struct {
	Allowed             uint64
	Rejected            uint64
	Successes           uint64
	Failures            uint64
	ConsecutiveFailures uint32
}

// Breaker guards an unreliable backend. Callers ask Allow before each
// attempt and report the outcome with Record. One probe is admitted after
// the cooldown; its outcome closes or reopens the breaker.
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool
}

// New creates a circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.Threshold == 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, promoting open to half-open once the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Counts returns a copy of the internal counts
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Allow reports whether an attempt may proceed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	switch b.state {
	case StateOpen:
		b.counts.Rejected++
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			b.counts.Rejected++
			return ErrProbePending
		}
		b.probing = true
	}
	b.counts.Allowed++
	return nil
}

// Record reports the outcome of an attempt admitted by Allow.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if success {
		b.counts.Successes++
		b.counts.ConsecutiveFailures = 0
	} else {
		b.counts.Failures++
		b.counts.ConsecutiveFailures++
	}

	switch b.state {
	case StateHalfOpen:
		b.probing = false
		if success {
			b.transition(StateClosed)
		} else {
			b.transition(StateOpen)
		}
	case StateClosed:
		if b.counts.ConsecutiveFailures >= b.settings.Threshold {
			b.transition(StateOpen)
		}
	}
}

// Do runs fn if the breaker admits it and records whether it returned nil.
func (b *Breaker) Do(fn func() error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	b.Record(err == nil)
	return err
}

func (b *Breaker) advance() {
	if b.state == StateOpen && b.settings.Now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateHalfOpen)
	}
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	switch to {
	case StateOpen:
		b.openedAt = b.settings.Now()
	case StateClosed:
		b.counts.ConsecutiveFailures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
