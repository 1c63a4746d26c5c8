package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/handle"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/memory"
)

// Default arena placement when none is supplied.
const (
	DefaultArenaBase = 0x100000
	DefaultArenaSize = 16 << 20
)

// ErrNotBooted is returned by Exclusive before the boot vector has run.
var ErrNotBooted = errors.New("kernel not booted")

// Session is what the dispatcher drives. *session.Session implements it.
type Session interface {
	OnIRQ(ctx context.Context, line uint8)
	OnPoll(ctx context.Context)
	Redraw()
	Current() (capability.Object, bool)
	CurrentIndex() int
	Request(ctx context.Context, url resource.URL, fn continuation.Func) bool
	Snapshot() session.Snapshot
}

// Executor is the capability an item needs to receive responses to its
// own system calls.
type Executor interface {
	OnResponse(resp resource.Response, cont *continuation.Once) error
}

// Booter builds the session during the boot vector. It runs inside the
// exclusive context.
type Booter func(ctx context.Context, k *Kernel) (Session, error)

type exclusiveKey struct{}

// Kernel is the executive.
type Kernel struct {
	machine hal.Machine
	console *hal.Console
	arena   *memory.Arena
	urls    *handle.Table[resource.URL]
	conts   *handle.Table[*continuation.Once]

	mask    chan struct{}
	session Session
	booter  Booter
	booted  bool

	ready     chan struct{}
	readyOnce sync.Once

	logger  *logging.Logger
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// Option configures a Kernel.
type Option func(*Kernel)

// WithConsole sets the debug channel.
func WithConsole(c *hal.Console) Option {
	return func(k *Kernel) { k.console = c }
}

// WithArena sets the allocator backing the handle tables.
func WithArena(a *memory.Arena) Option {
	return func(k *Kernel) { k.arena = a }
}

// WithLogger sets the structured logger.
func WithLogger(l *logging.Logger) Option {
	return func(k *Kernel) {
		if l != nil {
			k.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(k *Kernel) { k.metrics = m }
}

// WithTracer traces Session Requests from issue to delivery.
func WithTracer(t *tracing.Tracer) Option {
	return func(k *Kernel) { k.tracer = t }
}

// WithBooter replaces the boot sequence.
func WithBooter(b Booter) Option {
	return func(k *Kernel) { k.booter = b }
}

// WithSession installs a ready session; the boot vector then only runs the
// idle loop.
func WithSession(s Session) Option {
	return func(k *Kernel) { k.session = s }
}

// New creates a kernel and installs its trap entry into machine.
func New(machine hal.Machine, opts ...Option) (*Kernel, error) {
	if machine == nil {
		return nil, fmt.Errorf("machine cannot be nil")
	}
	k := &Kernel{
		machine: machine,
		mask:    make(chan struct{}, 1),
		ready:   make(chan struct{}),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.console == nil {
		k.console = hal.NewConsole(io.Discard, 0)
	}
	if k.arena == nil {
		arena, err := memory.NewArena(DefaultArenaBase, DefaultArenaSize)
		if err != nil {
			return nil, fmt.Errorf("create arena: %w", err)
		}
		k.arena = arena
	}
	if k.booter == nil && k.session == nil {
		return nil, fmt.Errorf("kernel needs a booter or a session")
	}

	k.urls = handle.New[resource.URL](k.arena, handle.DefaultSlotSize)
	k.conts = handle.New[*continuation.Once](k.arena, handle.DefaultSlotSize)
	k.logger = k.logger.Named("kernel")

	machine.Install(k.Trap)
	return k, nil
}

// Console returns the debug channel.
func (k *Kernel) Console() *hal.Console { return k.console }

// Arena returns the allocator backing the handle tables.
func (k *Kernel) Arena() *memory.Arena { return k.arena }

// Machine returns the processor the kernel runs on.
func (k *Kernel) Machine() hal.Machine { return k.machine }

// Logger returns the kernel logger.
func (k *Kernel) Logger() *logging.Logger { return k.logger }

// Metrics returns the metrics sink, which may be nil.
func (k *Kernel) Metrics() *monitoring.Metrics { return k.metrics }

// Ready is closed once boot has finished.
func (k *Kernel) Ready() <-chan struct{} { return k.ready }

// LiveHandles counts URL and continuation handles not yet taken.
func (k *Kernel) LiveHandles() int {
	return k.urls.Live() + k.conts.Live()
}

// Exclusive runs fn with interrupts masked. It waits for the running trap,
// if any, to finish or yield to the idle loop.
func (k *Kernel) Exclusive(ctx context.Context, fn func(ctx context.Context, s Session)) error {
	if !k.marked(ctx) {
		select {
		case k.mask <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer k.unmask()
		ctx = context.WithValue(ctx, exclusiveKey{}, k)
	}
	if k.session == nil {
		return ErrNotBooted
	}
	fn(ctx, k.session)
	return nil
}

// enter acquires the mask unless ctx already holds it. owned reports
// whether this call acquired it.
func (k *Kernel) enter(ctx context.Context) (xctx context.Context, owned bool) {
	if k.marked(ctx) {
		return ctx, false
	}
	k.mask <- struct{}{}
	return context.WithValue(ctx, exclusiveKey{}, k), true
}

func (k *Kernel) marked(ctx context.Context) bool {
	owner, _ := ctx.Value(exclusiveKey{}).(*Kernel)
	return owner == k
}

func (k *Kernel) remask() { k.mask <- struct{}{} }

func (k *Kernel) unmask() { <-k.mask }

// report writes a diagnostic line and mirrors it to the log.
func (k *Kernel) report(format string, args ...interface{}) {
	k.console.Printf(format, args...)
	if ce := k.logger.Check(zap.DebugLevel, "diagnostic"); ce != nil {
		ce.Write(zap.String("line", fmt.Sprintf(format, args...)))
	}
}
