package kernel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/trap"
)

// Trap is the single entry for every vector. It is installed into the
// machine by New.
func (k *Kernel) Trap(ctx context.Context, vector uint32) {
	// Registers first: anything else may clobber the caller's arguments.
	regs := k.machine.Registers()
	start := time.Now()

	xctx, owned := k.enter(ctx)
	defer func() {
		if owned {
			k.unmask()
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			file, line := panicSite()
			k.halt(file, line, fmt.Sprint(r))
		}
	}()

	v := trap.Vector(vector)
	class := trap.Classify(v)

	switch class {
	case trap.ClassException:
		name, _ := trap.ExceptionName(v)
		k.report("%s", name)
		k.metrics.RecordException(vector)
	case trap.ClassIRQ:
		k.interrupt(xctx, v)
	case trap.ClassSyscall:
		k.syscall(xctx, regs)
	case trap.ClassBoot:
		if !owned {
			k.logger.Warn("boot vector raised inside a trap")
			return
		}
		if k.boot(xctx) {
			k.idle(ctx, xctx)
		}
		return
	default:
		k.report("I: %X", vector)
	}

	k.metrics.RecordTrap(class.String(), time.Since(start))
}

// interrupt forwards a hardware line to the session and acknowledges the
// controllers: secondary first for cascaded lines, then always primary.
func (k *Kernel) interrupt(ctx context.Context, v trap.Vector) {
	line := v.IRQLine()
	k.metrics.RecordIRQ(line)

	switch {
	case v == trap.Timer:
	case v.Forwarded():
		if k.session != nil {
			k.session.OnIRQ(ctx, line)
		}
	default:
		k.report("I: %X", uint32(v))
	}

	if v.Cascaded() {
		k.machine.Outb(hal.SecondaryPICCommand, hal.EOI)
		k.metrics.RecordEOI("secondary")
	}
	k.machine.Outb(hal.PrimaryPICCommand, hal.EOI)
	k.metrics.RecordEOI("primary")

	if v != trap.Timer {
		k.logger.Debug("irq", zap.Uint8("line", line))
	}
}
