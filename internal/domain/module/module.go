package module

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// Module is a registered driver or scheme.
type Module interface {
	capability.Object
}

// IRQHandler services hardware interrupt lines. OnIRQ may only touch the
// module's own state and queue completions; it must never run a
// continuation synchronously.
type IRQHandler interface {
	HandlesIRQ(line uint8) bool
	OnIRQ(ctx context.Context, line uint8)
}

// Deliver hands a finished response back to whoever requested it.
type Deliver func(resource.Response)

// SchemeResolver resolves identifiers of one scheme. Fetch starts the work
// and returns; deliver is called later, from OnPoll.
type SchemeResolver interface {
	OwnsScheme(scheme string) bool
	Fetch(ctx context.Context, url resource.URL, deliver Deliver)
}

// Poller is advanced once per idle-loop iteration.
type Poller interface {
	OnPoll(ctx context.Context)
}

// Conformance maps module capability tags to their interfaces.
func Conformance() capability.Conformance {
	return capability.Conformance{
		capability.IRQ:    capability.Implements[IRQHandler](),
		capability.Scheme: capability.Implements[SchemeResolver](),
		capability.Poll:   capability.Implements[Poller](),
	}
}

type completion struct {
	deliver Deliver
	resp    resource.Response
}

// Completions queues finished fetches until the next poll. Push is safe
// from any goroutine; Drain runs the deliveries on the caller's.
type Completions struct {
	mu      sync.Mutex
	pending []completion
}

// Push queues resp for deliver.
func (c *Completions) Push(deliver Deliver, resp resource.Response) {
	c.mu.Lock()
	c.pending = append(c.pending, completion{deliver: deliver, resp: resp})
	c.mu.Unlock()
}

// Drain delivers everything queued so far and returns the count.
func (c *Completions) Drain() int {
	c.mu.Lock()
	batch := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, done := range batch {
		if done.deliver != nil {
			done.deliver(done.resp)
		}
	}
	return len(batch)
}

// Pending returns the queue length.
func (c *Completions) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
