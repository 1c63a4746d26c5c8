package kernel

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicReportsCallerAndHalts(t *testing.T) {
	k, sim := newKernel(t, WithSession(newStub()))
	sim.EnableInterrupts()

	done := make(chan struct{})
	site := make(chan int, 1)
	go func() {
		defer close(done)
		_, _, line, _ := runtime.Caller(0)
		site <- line + 1
		k.Panic("out of handles")
	}()

	waitFor(t, sim.Halted, "processor not halted")
	lines := k.Console().Lines()
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "PANIC: "))
	assert.True(t, strings.HasSuffix(lines[0], fmt.Sprintf("panic_test.go: %X", <-site)), lines[0])
	assert.False(t, sim.InterruptsEnabled())

	select {
	case <-done:
		t.Fatal("panic returned")
	default:
	}
	sim.Close()
	<-done
}

func TestTrapRecoversHandlerPanic(t *testing.T) {
	stub := newStub()
	stub.onIRQ = func(uint8) { panic("driver fault") }
	k, sim := newKernel(t, WithSession(stub))

	done := make(chan struct{})
	go func() {
		defer close(done)
		k.Trap(context.Background(), 0x21)
	}()

	waitFor(t, sim.Halted, "processor not halted")
	assert.True(t, consoleHas(k, "panic_test.go: "), "panic site is the raising frame")
	assert.Empty(t, sim.PortWrites(), "no EOI after a fault")

	sim.Close()
	<-done
}
