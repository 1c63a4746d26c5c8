package kernel

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/continuation"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/handle"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/trap"
)

// System call numbers.
const (
	SysSessionRequest uint32 = 0x1
)

// ErrNotConsumed is returned when a system call returned without taking
// the continuation handle it was given.
var ErrNotConsumed = errors.New("continuation handle not consumed")

// Syscall outcomes, as recorded in metrics.
const (
	statusIssued    = "issued"
	statusDropped   = "dropped"
	statusUnfocused = "unfocused"
	statusNoItem    = "no_item"
	statusBadHandle = "bad_handle"
	statusUnknown   = "unknown"
)

func (k *Kernel) syscall(ctx context.Context, regs hal.Registers) {
	switch regs.EAX {
	case SysSessionRequest:
		span, ctx := k.tracer.StartSpan(ctx, "syscall.session_request")
		status := k.sessionRequest(ctx, regs, span)
		span.SetTag("status", status)
		if status != statusIssued {
			span.Finish()
			k.tracer.Submit(span)
		}
		k.metrics.RecordSyscall(regs.EAX, status)
	default:
		k.report("System Call EAX:%X EBX:%X ECX:%X EDX:%X", regs.EAX, regs.EBX, regs.ECX, regs.EDX)
		k.metrics.RecordSyscall(regs.EAX, statusUnknown)
	}
}

// sessionRequest implements call 0x1. The continuation handle is taken
// before anything else, so its slot is freed whether or not the request
// is issued. An issued request's span is finished by its delivery.
func (k *Kernel) sessionRequest(ctx context.Context, regs hal.Registers, span *tracing.Span) string {
	cont, err := k.conts.Take(handle.Handle(regs.ECX))
	if err != nil {
		k.report("Session Request: bad continuation %X", regs.ECX)
		k.logger.Warn("session request rejected", zap.Error(err))
		return statusBadHandle
	}
	url, err := k.urls.Load(handle.Handle(regs.EBX))
	if err != nil {
		k.report("Session Request: bad URL %X", regs.EBX)
		k.logger.Warn("session request rejected", zap.Error(err))
		return statusBadHandle
	}
	k.metrics.SetLiveHandles(k.LiveHandles())
	span.SetTag("url", url.String())

	k.report("Session Request: %s", url)

	if k.session == nil || k.session.CurrentIndex() < 0 {
		k.logger.Debug("session request dropped: unfocused", zap.String("url", url.String()))
		return statusUnfocused
	}
	if _, ok := k.session.Current(); !ok {
		k.report("Failed to find current item")
		return statusNoItem
	}

	issued := k.session.Request(ctx, url, func(item capability.Object, resp resource.Response) {
		defer func() {
			span.Finish()
			k.tracer.Submit(span)
		}()
		span.Log("delivered", map[string]interface{}{"item": item.Name(), "bytes": resp.Len()})

		exec, ok := capability.As[Executor](item, capability.Executor)
		if !ok {
			k.report("Failed to downcast")
			span.SetError(errors.New("item is not an executor"))
			return
		}
		if err := exec.OnResponse(resp, cont); err != nil {
			k.logger.Error("response delivery failed", zap.String("url", url.String()), zap.Error(err))
			span.SetError(err)
		}
	})
	if !issued {
		return statusDropped
	}
	return statusIssued
}

// SessionRequest is the caller side of call 0x1: it places url and fn in
// the handle tables, raises int 0x80, and reclaims the URL handle. fn runs
// at most once, after the owning module completes.
func (k *Kernel) SessionRequest(ctx context.Context, url resource.URL, fn continuation.Func) error {
	urlH, err := k.urls.Put(url)
	if err != nil {
		return fmt.Errorf("session request: %w", err)
	}
	once := continuation.New(fn)
	contH, err := k.conts.Put(once)
	if err != nil {
		_, _ = k.urls.Take(urlH)
		return fmt.Errorf("session request: %w", err)
	}

	k.machine.SoftwareInterrupt(ctx, uint32(trap.Syscall), hal.Registers{
		EAX: SysSessionRequest,
		EBX: uint32(urlH),
		ECX: uint32(contH),
	})

	if _, err := k.urls.Take(urlH); err != nil {
		return fmt.Errorf("session request: reclaim url: %w", err)
	}
	if _, leaked := k.conts.TakeIf(contH, func(c *continuation.Once) bool { return c == once }); leaked {
		return fmt.Errorf("session request %s: %w", url, ErrNotConsumed)
	}
	k.metrics.SetLiveHandles(k.LiveHandles())
	return nil
}
