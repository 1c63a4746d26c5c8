package programs

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// Requester issues Session Requests on behalf of a program.
type Requester interface {
	SessionRequest(ctx context.Context, url resource.URL, fn continuation.Func) error
}

// Executor is a running program. It is not safe for concurrent use: the
// kernel calls it only from inside a trap.
type Executor struct {
	id      uuid.UUID
	name    string
	timeout time.Duration

	requester Requester
	console   func(line string)

	vm        *goja.Runtime
	ctx       context.Context
	responses int
	errors    []error
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithRequester wires the system call path used by scripts.
func WithRequester(r Requester) ExecutorOption {
	return func(e *Executor) { e.requester = r }
}

// WithConsole sets where console.* lines go.
func WithConsole(fn func(line string)) ExecutorOption {
	return func(e *Executor) { e.console = fn }
}

// WithTimeout bounds each script evaluation and callback.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates an idle executor.
func NewExecutor(name string, opts ...ExecutorOption) *Executor {
	e := &Executor{
		id:      uuid.New(),
		name:    name,
		timeout: 5 * time.Second,
		console: func(string) {},
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) Name() string { return "executor:" + e.name }

func (e *Executor) Capabilities() capability.Set {
	return capability.Set{capability.Executor}
}

// ID returns the instance ID.
func (e *Executor) ID() uuid.UUID { return e.id }

// OnResponse hands resp to the continuation that requested it.
func (e *Executor) OnResponse(resp resource.Response, cont *continuation.Once) error {
	if cont == nil {
		return fmt.Errorf("%s: nil continuation", e.Name())
	}
	e.responses++
	return cont.Invoke(e, resp)
}

// Responses counts responses delivered to this executor.
func (e *Executor) Responses() int { return e.responses }

// Errors returns script errors raised from callbacks.
func (e *Executor) Errors() []error {
	out := make([]error, len(e.errors))
	copy(out, e.errors)
	return out
}

// Run evaluates source. ctx is kept for requests the script makes later
// from its callbacks.
func (e *Executor) Run(ctx context.Context, source string) error {
	if e.vm == nil {
		e.vm = goja.New()
		if err := e.setupGlobals(); err != nil {
			return err
		}
	}
	e.ctx = ctx

	return e.guard(func() error {
		_, err := e.vm.RunString(source)
		return err
	})
}

// guard runs fn with the evaluation timeout armed.
func (e *Executor) guard(fn func() error) error {
	timer := time.AfterFunc(e.timeout, func() {
		e.vm.Interrupt("execution timeout exceeded")
	})
	defer timer.Stop()

	err := fn()
	e.vm.ClearInterrupt()
	if err != nil {
		return fmt.Errorf("%s: %w", e.Name(), err)
	}
	return nil
}

func (e *Executor) setupGlobals() error {
	e.vm.Set("require", goja.Undefined())

	console := e.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		if err := console.Set(level, e.makeConsoleFunc(level)); err != nil {
			return err
		}
	}
	if err := e.vm.Set("console", console); err != nil {
		return err
	}
	return e.vm.Set("request", e.request)
}

func (e *Executor) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		if level != "log" {
			msg = level + ": " + msg
		}
		e.console(msg)
		return goja.Undefined()
	}
}

// request implements the script's request(url, fn) global. It returns
// true when the system call was issued.
func (e *Executor) request(call goja.FunctionCall) goja.Value {
	if e.requester == nil {
		panic(e.vm.NewTypeError("request: no kernel attached"))
	}
	url, err := resource.Parse(call.Argument(0).String())
	if err != nil {
		panic(e.vm.NewTypeError(err.Error()))
	}
	callback, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(e.vm.NewTypeError("request: callback is not a function"))
	}

	err = e.requester.SessionRequest(e.ctx, url, func(_ capability.Object, resp resource.Response) {
		cbErr := e.guard(func() error {
			_, err := callback(goja.Undefined(), e.responseObject(resp))
			return err
		})
		if cbErr != nil {
			e.errors = append(e.errors, cbErr)
			e.console("error: " + cbErr.Error())
		}
	})
	return e.vm.ToValue(err == nil)
}

func (e *Executor) responseObject(resp resource.Response) goja.Value {
	meta := make(map[string]interface{}, len(resp.Meta))
	for k, v := range resp.Meta {
		meta[k] = v
	}
	return e.vm.ToValue(map[string]interface{}{
		"url":  resp.URL.String(),
		"mime": resp.MIME,
		"size": resp.Len(),
		"text": resp.Text(),
		"meta": meta,
	})
}
