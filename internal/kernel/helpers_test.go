package kernel

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
)

// eventLog is shared by the recording machine and stub session.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// recorder logs the processor operations the idle loop performs.
type recorder struct {
	*hal.Sim
	log *eventLog
}

func (r *recorder) EnableInterrupts()  { r.log.add("sti"); r.Sim.EnableInterrupts() }
func (r *recorder) DisableInterrupts() { r.log.add("cli"); r.Sim.DisableInterrupts() }
func (r *recorder) Halt(ctx context.Context) {
	r.log.add("hlt")
	r.Sim.Halt(ctx)
}

// stubSession records dispatcher calls.
type stubSession struct {
	log      *eventLog
	irqs     []uint8
	onIRQ    func(line uint8)
	onRedraw func(n int)
	redraws  int
}

func (s *stubSession) OnIRQ(ctx context.Context, line uint8) {
	s.irqs = append(s.irqs, line)
	if s.onIRQ != nil {
		s.onIRQ(line)
	}
}
func (s *stubSession) OnPoll(ctx context.Context) { s.log.add("poll") }
func (s *stubSession) Redraw() {
	s.log.add("redraw")
	s.redraws++
	if s.onRedraw != nil {
		s.onRedraw(s.redraws)
	}
}
func (s *stubSession) Current() (capability.Object, bool) { return nil, false }
func (s *stubSession) CurrentIndex() int                  { return -1 }
func (s *stubSession) Request(context.Context, resource.URL, continuation.Func) bool {
	return false
}
func (s *stubSession) Snapshot() session.Snapshot { return session.Snapshot{Focus: -1} }

func newStub() *stubSession { return &stubSession{log: &eventLog{}} }

// parkedScheme owns "test:" and completes every fetch with the URL text on
// the next poll.
type parkedScheme struct {
	*schemes.Base
	fetches int
}

func newParkedScheme() *parkedScheme {
	return &parkedScheme{Base: schemes.NewBase("test", "test")}
}

func (p *parkedScheme) Fetch(ctx context.Context, u resource.URL, deliver module.Deliver) {
	p.fetches++
	p.Complete(deliver, resource.Response{URL: u, Data: []byte(u.Rest)})
}

func newKernel(t *testing.T, opts ...Option) (*Kernel, *hal.Sim) {
	t.Helper()
	sim := hal.NewSim()
	t.Cleanup(sim.Close)
	opts = append([]Option{
		WithConsole(hal.NewConsole(nil, 0)),
		WithMetrics(monitoring.NewMetrics()),
	}, opts...)
	k, err := New(sim, opts...)
	require.NoError(t, err)
	return k, sim
}

func consoleHas(k *Kernel, substr string) bool {
	for _, line := range k.Console().Lines() {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 5*time.Second, 5*time.Millisecond, msg)
}
