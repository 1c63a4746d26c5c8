package hal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPICEndOfInterrupt(t *testing.T) {
	var p PIC
	p.Request(1)
	p.Acknowledge(1)
	assert.True(t, p.InService(1))

	p.Command(EOI)
	assert.False(t, p.InService(1))
	assert.Equal(t, 1, p.EOIs())

	p.Command(0x11) // ICW1 is ignored
	assert.Equal(t, 1, p.EOIs())
}

func TestSimOutbForwardsEOI(t *testing.T) {
	s := NewSim()
	s.Outb(SecondaryPICCommand, EOI)
	s.Outb(PrimaryPICCommand, EOI)

	assert.Equal(t, 1, s.Primary().EOIs())
	assert.Equal(t, 1, s.Secondary().EOIs())

	writes := s.PortWrites()
	require.Len(t, writes, 2)
	assert.Equal(t, SecondaryPICCommand, writes[0].Port)
	assert.Equal(t, PrimaryPICCommand, writes[1].Port)
}

func TestSimHaltDeliversWithInterruptsMasked(t *testing.T) {
	s := NewSim()
	defer s.Close()

	var (
		got     uint32
		enabled bool
	)
	s.Install(func(ctx context.Context, vector uint32) {
		got = vector
		enabled = s.InterruptsEnabled()
	})

	s.Raise(12)
	s.EnableInterrupts()
	s.Halt(context.Background())

	assert.Equal(t, uint32(0x2C), got)
	assert.False(t, enabled, "handler must run masked")
	assert.True(t, s.InterruptsEnabled(), "iret restores the flag")
	assert.True(t, s.Secondary().InService(4))
	assert.True(t, s.Primary().InService(2))
}

func TestSimHaltReturnsOnCancel(t *testing.T) {
	s := NewSim()
	defer s.Close()
	s.EnableInterrupts()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	s.Halt(ctx)
	assert.False(t, s.Halted())
}

func TestSimHaltMaskedParks(t *testing.T) {
	s := NewSim()
	done := make(chan struct{})
	go func() {
		s.Halt(context.Background())
		close(done)
	}()

	require.Eventually(t, s.Halted, time.Second, time.Millisecond)
	s.Close()
	<-done
}

func TestSimSoftwareInterruptLoadsRegisters(t *testing.T) {
	s := NewSim()
	var seen Registers
	s.Install(func(ctx context.Context, vector uint32) {
		seen = s.Registers()
	})

	s.SoftwareInterrupt(context.Background(), 0x80, Registers{EAX: 1, EBX: 2, ECX: 3, EDX: 4})
	assert.Equal(t, Registers{EAX: 1, EBX: 2, ECX: 3, EDX: 4}, seen)
	assert.Equal(t, Registers{}, s.Registers())
}

func TestSimPCIConfigSpace(t *testing.T) {
	s := NewSim()
	s.AddPCIDevice(0, 3, 0, 0x8086, 0x100E, 0x02, 0x00, 11)

	s.Outl(PCIConfigAddress, PCIAddress(0, 3, 0, 0))
	assert.Equal(t, uint32(0x100E8086), s.Inl(PCIConfigData))

	s.Outl(PCIConfigAddress, PCIAddress(0, 4, 0, 0))
	assert.Equal(t, uint32(0xFFFFFFFF), s.Inl(PCIConfigData))
}

func TestSimFeed(t *testing.T) {
	s := NewSim()
	s.Feed(0x60, 0x1E, 0x9E)
	assert.Equal(t, uint8(0x1E), s.Inb(0x60))
	assert.Equal(t, uint8(0x9E), s.Inb(0x60))
	assert.Equal(t, uint8(0), s.Inb(0x60))
}
