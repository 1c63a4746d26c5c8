// Package continuation holds the single-use callbacks that receive the
// response to a resource request.
package continuation

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// ErrInvoked reports a second invocation of a continuation.
var ErrInvoked = errors.New("continuation already invoked")

// Func receives the item that issued the request and the response payload.
type Func func(item capability.Object, resp resource.Response)

// Once wraps a Func that may run at most once.
type Once struct {
	mu       sync.Mutex
	fn       Func
	invoked  bool
	attempts int
}

// New wraps fn.
func New(fn Func) *Once {
	return &Once{fn: fn}
}

// Invoke runs the continuation. Every call after the first is a protocol
// violation: it does not run fn and returns ErrInvoked.
func (o *Once) Invoke(item capability.Object, resp resource.Response) error {
	o.mu.Lock()
	o.attempts++
	if o.invoked {
		o.mu.Unlock()
		return ErrInvoked
	}
	o.invoked = true
	fn := o.fn
	o.fn = nil
	o.mu.Unlock()

	if fn != nil {
		fn(item, resp)
	}
	return nil
}

// Invoked reports whether the continuation has run.
func (o *Once) Invoked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.invoked
}

// Attempts counts every Invoke call, including rejected ones.
func (o *Once) Attempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempts
}
