package hal

import (
	"context"
	"sync"
	"time"
)

const irqQueueDepth = 64

// PortWrite is one recorded OUT instruction.
type PortWrite struct {
	Port  uint16
	Value uint32
	Width int
}

// Sim is a software Machine. Hardware interrupts raised with Raise are only
// delivered while the processor is halted with interrupts enabled, which is
// what the idle loop does.
type Sim struct {
	mu        sync.Mutex
	entry     TrapFunc
	regs      Registers
	enabled   bool
	primary   PIC
	secondary PIC
	inputs    map[uint16][]uint8
	pci       map[uint32]uint32
	pciAddr   uint32
	writes    []PortWrite
	halted    bool

	irqs      chan uint8
	done      chan struct{}
	closeOnce sync.Once
}

// NewSim creates a machine with interrupts masked.
func NewSim() *Sim {
	return &Sim{
		inputs: make(map[uint16][]uint8),
		pci:    make(map[uint32]uint32),
		irqs:   make(chan uint8, irqQueueDepth),
		done:   make(chan struct{}),
	}
}

// Install sets the trap entry.
func (s *Sim) Install(entry TrapFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = entry
}

// Registers returns the registers of the current trap.
func (s *Sim) Registers() Registers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs
}

// Inb pops the next byte fed to port, or returns 0.
func (s *Sim) Inb(port uint16) uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.inputs[port]
	if len(q) == 0 {
		return 0
	}
	s.inputs[port] = q[1:]
	return q[0]
}

// Outb records the write and forwards interrupt controller commands.
func (s *Sim) Outb(port uint16, value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, PortWrite{Port: port, Value: uint32(value), Width: 8})
	switch port {
	case PrimaryPICCommand:
		s.primary.Command(value)
	case SecondaryPICCommand:
		s.secondary.Command(value)
	}
}

// Inl reads PCI configuration space; absent devices read as all ones.
func (s *Sim) Inl(port uint16) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if port != PCIConfigData {
		return 0xFFFFFFFF
	}
	if v, ok := s.pci[s.pciAddr]; ok {
		return v
	}
	return 0xFFFFFFFF
}

// Outl records the write and latches the PCI configuration address.
func (s *Sim) Outl(port uint16, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes = append(s.writes, PortWrite{Port: port, Value: value, Width: 32})
	if port == PCIConfigAddress {
		s.pciAddr = value
	}
}

// EnableInterrupts is sti.
func (s *Sim) EnableInterrupts() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
}

// DisableInterrupts is cli.
func (s *Sim) DisableInterrupts() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// InterruptsEnabled reports the interrupt flag.
func (s *Sim) InterruptsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Halt waits for one hardware interrupt and runs its trap. Halting with
// interrupts masked never wakes up.
func (s *Sim) Halt(ctx context.Context) {
	if !s.InterruptsEnabled() {
		s.HaltForever()
		return
	}

	select {
	case line := <-s.irqs:
		s.deliver(ctx, line)
	case <-ctx.Done():
	case <-s.done:
	}
}

// HaltForever parks the caller until the machine is closed.
func (s *Sim) HaltForever() {
	s.mu.Lock()
	s.halted = true
	s.mu.Unlock()
	<-s.done
}

// Halted reports whether the processor has been parked permanently.
func (s *Sim) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// SoftwareInterrupt executes int vector with regs loaded.
func (s *Sim) SoftwareInterrupt(ctx context.Context, vector uint32, regs Registers) {
	s.mu.Lock()
	saved, flag, entry := s.regs, s.enabled, s.entry
	s.regs = regs
	s.enabled = false
	s.mu.Unlock()

	if entry != nil {
		entry(ctx, vector)
	}

	s.mu.Lock()
	s.regs = saved
	s.enabled = flag
	s.mu.Unlock()
}

// Deliver runs the trap for vector immediately with the current registers.
// It is how exceptions and the boot vector enter the executive.
func (s *Sim) Deliver(ctx context.Context, vector uint32) {
	s.mu.Lock()
	entry := s.entry
	s.mu.Unlock()

	if entry != nil {
		entry(ctx, vector)
	}
}

// Raise asserts hardware interrupt line (0-15). The request is dropped if
// the delivery queue is full.
func (s *Sim) Raise(line uint8) {
	line &= 0xF
	s.mu.Lock()
	if line >= 8 {
		s.secondary.Request(line - 8)
		s.primary.Request(2)
	} else {
		s.primary.Request(line)
	}
	s.mu.Unlock()

	select {
	case s.irqs <- line:
	default:
	}
}

// StartTimer raises IRQ 0 every interval until the returned stop is called.
func (s *Sim) StartTimer(interval time.Duration) (stop func()) {
	quit := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Raise(0)
			case <-quit:
				return
			case <-s.done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(quit) }) }
}

// Feed queues bytes to be returned by Inb(port).
func (s *Sim) Feed(port uint16, values ...uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs[port] = append(s.inputs[port], values...)
}

// AddPCIDevice populates configuration space for bus/slot/function.
func (s *Sim) AddPCIDevice(bus, slot, function uint8, vendor, device uint16, class, subclass, irq uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := PCIAddress(bus, slot, function, 0)
	s.pci[base] = uint32(device)<<16 | uint32(vendor)
	s.pci[base|0x08] = uint32(class)<<24 | uint32(subclass)<<16
	s.pci[base|0x3C] = uint32(irq)
}

// PortWrites returns a copy of every recorded OUT.
func (s *Sim) PortWrites() []PortWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PortWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

// Primary returns a copy of the primary PIC state.
func (s *Sim) Primary() PIC {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primary
}

// Secondary returns a copy of the cascaded PIC state.
func (s *Sim) Secondary() PIC {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secondary
}

// Close wakes every halted caller and stops the timer.
func (s *Sim) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Sim) deliver(ctx context.Context, line uint8) {
	s.mu.Lock()
	if line >= 8 {
		s.secondary.Acknowledge(line - 8)
		s.primary.Acknowledge(2)
	} else {
		s.primary.Acknowledge(line)
	}
	flag, entry := s.enabled, s.entry
	s.enabled = false
	s.mu.Unlock()

	if entry != nil {
		entry(ctx, 0x20+uint32(line))
	}

	s.mu.Lock()
	s.enabled = flag
	s.mu.Unlock()
}

// PCIAddress encodes a configuration mechanism #1 address.
func PCIAddress(bus, slot, function, offset uint8) uint32 {
	return 1<<31 | uint32(bus)<<16 | uint32(slot&0x1F)<<11 | uint32(function&0x7)<<8 | uint32(offset&0xFC)
}
