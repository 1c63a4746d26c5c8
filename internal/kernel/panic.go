package kernel

import (
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// Panic reports the caller's source location, masks interrupts and halts
// the processor for good. It does not return on real hardware.
func (k *Kernel) Panic(msg string) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file, line = "???", 0
	}
	k.halt(file, line, msg)
}

func (k *Kernel) halt(file string, line int, msg string) {
	k.console.Printf("PANIC: %s: %X", file, line)
	k.logger.Error("kernel panic", zap.String("file", file), zap.Int("line", line), zap.String("message", msg))
	k.machine.DisableInterrupts()
	k.machine.HaltForever()
}

// panicSite finds the frame that raised a recovered panic. It must be
// called directly from the deferred recover function.
func panicSite() (string, int) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if f.Function != "" && !strings.HasPrefix(f.Function, "runtime.") {
			return f.File, f.Line
		}
		if !more {
			return "???", 0
		}
	}
}
