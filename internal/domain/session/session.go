package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/display"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/executive/internal/shared/id"
)

// Request outcomes, as recorded in metrics.
const (
	OutcomeIssued    = "issued"
	OutcomeUnfocused = "unfocused"
	OutcomeUnmatched = "unmatched"
)

// Session is the running workspace.
type Session struct {
	items   []capability.Object
	modules *module.Registry
	current int
	display *display.Display

	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithRegistry replaces the empty default registry.
func WithRegistry(r *module.Registry) Option {
	return func(s *Session) {
		if r != nil {
			s.modules = r
		}
	}
}

// New creates an unfocused session with no items.
func New(d *display.Display, opts ...Option) *Session {
	s := &Session{
		modules: module.NewRegistry(),
		current: -1,
		display: d,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.display == nil {
		s.display = display.New(0, 0)
	}
	return s
}

// Insert places item at index, shifting later items up. The focus follows
// the item it pointed at.
func (s *Session) Insert(index int, item capability.Object) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if index < 0 || index > len(s.items) {
		return fmt.Errorf("insert %s at %d: index out of range [0,%d]", item.Name(), index, len(s.items))
	}

	s.items = append(s.items, nil)
	copy(s.items[index+1:], s.items[index:])
	s.items[index] = item
	if s.current >= index {
		s.current++
	}
	return nil
}

// Append adds item at the end and returns its index.
func (s *Session) Append(item capability.Object) (int, error) {
	index := len(s.items)
	if err := s.Insert(index, item); err != nil {
		return -1, err
	}
	return index, nil
}

// Focus sets the current item index. Negative or out-of-range values leave
// the session unfocused.
func (s *Session) Focus(index int) {
	s.current = index
}

// CurrentIndex returns the raw focus index.
func (s *Session) CurrentIndex() int {
	return s.current
}

// Current returns the focused item.
func (s *Session) Current() (capability.Object, bool) {
	return s.Item(s.current)
}

// Item returns the item at index.
func (s *Session) Item(index int) (capability.Object, bool) {
	if index < 0 || index >= len(s.items) {
		return nil, false
	}
	return s.items[index], true
}

// Items returns the items in order.
func (s *Session) Items() []capability.Object {
	out := make([]capability.Object, len(s.items))
	copy(out, s.items)
	return out
}

// Modules returns the module registry.
func (s *Session) Modules() *module.Registry {
	return s.modules
}

// Display returns the display.
func (s *Session) Display() *display.Display {
	return s.display
}

// OnIRQ forwards a hardware line to every module that claims it.
func (s *Session) OnIRQ(ctx context.Context, line uint8) {
	for _, h := range s.modules.IRQHandlers(line) {
		h.OnIRQ(ctx, line)
	}
}

// OnPoll advances every polling module.
func (s *Session) OnPoll(ctx context.Context) {
	for _, p := range s.modules.Pollers() {
		p.OnPoll(ctx)
	}
}

// Redraw repaints the display.
func (s *Session) Redraw() {
	s.display.Redraw()
}

// Request starts a fetch of url on behalf of the focused item. fn receives
// that item and the response once the owning module completes. It returns
// false when the request was dropped: nothing is focused or no module
// owns the scheme. A dropped request never calls fn.
func (s *Session) Request(ctx context.Context, url resource.URL, fn continuation.Func) bool {
	reqID := id.NewRequestID()
	log := s.logger.With(zap.String("request_id", reqID.String()), zap.String("url", url.String()))

	item, ok := s.Current()
	if !ok {
		log.Debug("request dropped: no focused item", zap.Int("current", s.current))
		s.metrics.RecordRequest(url.Scheme, OutcomeUnfocused)
		return false
	}

	resolver, owner, ok := s.modules.Resolve(url.Scheme)
	if !ok {
		log.Debug("request dropped: no module owns scheme", zap.String("scheme", url.Scheme))
		s.metrics.RecordRequest(url.Scheme, OutcomeUnmatched)
		return false
	}

	log.Debug("request issued", zap.String("module", owner), zap.String("item", item.Name()))
	s.metrics.RecordRequest(url.Scheme, OutcomeIssued)

	scheme := url.Scheme
	resolver.Fetch(ctx, url, func(resp resource.Response) {
		log.Debug("request completed", zap.Int("bytes", resp.Len()))
		s.metrics.RecordCompletion(scheme)
		if fn != nil {
			fn(item, resp)
		}
	})
	return true
}
