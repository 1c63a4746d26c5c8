package kernel

import (
	"context"

	"go.uber.org/zap"
)

// boot builds the session once and reports whether the idle loop should
// run. A failing boot is fatal.
func (k *Kernel) boot(ctx context.Context) bool {
	if k.booted {
		k.logger.Warn("boot vector raised again; ignoring")
		return false
	}
	k.booted = true

	if k.session == nil {
		s, err := k.booter(ctx, k)
		if err != nil {
			k.logger.Error("boot failed", zap.Error(err))
			k.Panic("boot: " + err.Error())
			return false
		}
		k.session = s
	}
	k.logger.Info("boot complete", zap.Int("focus", k.session.CurrentIndex()))
	k.readyOnce.Do(func() { close(k.ready) })
	return true
}

// idle is the main loop: poll, redraw, then halt with interrupts enabled
// until the next interrupt has been serviced. The mask is released only
// while halted. It returns when outer is done.
func (k *Kernel) idle(outer, ctx context.Context) {
	for outer.Err() == nil {
		k.session.OnPoll(ctx)
		k.session.Redraw()
		k.metrics.IncIdle()

		k.machine.EnableInterrupts()
		k.unmask()
		k.machine.Halt(outer)
		k.remask()
		k.machine.DisableInterrupts()
	}
	k.logger.Info("idle loop stopped", zap.Error(outer.Err()))
}
