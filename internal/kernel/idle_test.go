package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/monitoring"
)

func TestIdleLoopOrder(t *testing.T) {
	sim := hal.NewSim()
	t.Cleanup(sim.Close)
	log := &eventLog{}
	machine := &recorder{Sim: sim, log: log}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stub := &stubSession{log: log, onRedraw: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	k, err := New(machine, WithSession(stub), WithMetrics(monitoring.NewMetrics()))
	require.NoError(t, err)

	// Wakes the first halt.
	sim.Raise(0)
	sim.Deliver(ctx, 0xFF)

	assert.Equal(t, []string{
		"poll", "redraw", "sti", "hlt", "cli",
		"poll", "redraw", "sti", "hlt", "cli",
	}, log.snapshot())
	assert.Equal(t, 1, sim.Primary().EOIs(), "timer serviced while halted")
	assert.Empty(t, stub.irqs)
	assert.False(t, sim.InterruptsEnabled())

	select {
	case <-k.Ready():
	default:
		t.Fatal("ready not closed")
	}
}

func TestIdleLoopServicesDeviceIRQ(t *testing.T) {
	stub := newStub()
	k, sim := newKernel(t, WithSession(stub))
	booted(t, k, sim)

	sim.Raise(1)
	sim.Raise(12)

	waitFor(t, func() bool {
		var n int
		_ = k.Exclusive(context.Background(), func(context.Context, Session) { n = len(stub.irqs) })
		return n == 2
	}, "IRQs not delivered")

	require.NoError(t, k.Exclusive(context.Background(), func(context.Context, Session) {
		assert.Equal(t, []uint8{1, 12}, stub.irqs)
	}))
	assert.Equal(t, 2, sim.Primary().EOIs())
	assert.Equal(t, 1, sim.Secondary().EOIs())
}
