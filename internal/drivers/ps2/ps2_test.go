package ps2

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
)

func TestInitEnablesPorts(t *testing.T) {
	sim := hal.NewSim()
	New(sim, nil)

	assert.Equal(t, []hal.PortWrite{
		{Port: CommandPort, Value: uint32(CmdEnableKeyboard), Width: 8},
		{Port: CommandPort, Value: uint32(CmdEnableAux), Width: 8},
	}, sim.PortWrites())
}

func TestHandlesIRQ(t *testing.T) {
	d := New(hal.NewSim(), nil)
	assert.True(t, d.HandlesIRQ(1))
	assert.True(t, d.HandlesIRQ(12))
	assert.False(t, d.HandlesIRQ(4))
}

func TestKeyboard(t *testing.T) {
	sim := hal.NewSim()
	d := New(sim, nil)

	sim.Feed(StatusPort, StatusOutputFull, StatusOutputFull)
	sim.Feed(DataPort, 0x1E, 0x9E) // 'a' down, 'a' up
	d.OnIRQ(context.Background(), KeyboardIRQ)

	assert.Equal(t, []KeyEvent{{Scancode: 0x1E, Pressed: true}, {Scancode: 0x1E, Pressed: false}}, d.Keys())
	assert.Empty(t, d.Keys())
}

func TestMousePacket(t *testing.T) {
	sim := hal.NewSim()
	d := New(sim, nil)

	aux := StatusOutputFull | StatusAuxData
	sim.Feed(StatusPort, aux, aux, aux, aux)
	// A stray byte without bit 3, then buttons=left, dx=+5, dy=-2.
	sim.Feed(DataPort, 0x00, 0x29, 0x05, 0xFE)
	d.OnIRQ(context.Background(), MouseIRQ)

	mice := d.Mouse()
	require.Len(t, mice, 1)
	assert.Equal(t, MouseEvent{Buttons: 1, DX: 5, DY: -2}, mice[0])
	assert.Empty(t, d.Keys())
}
