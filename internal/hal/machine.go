package hal

import (
	"context"
	"fmt"
	"io"
)

// Interrupt controller ports and commands.
const (
	PrimaryPICCommand   uint16 = 0x20
	PrimaryPICData      uint16 = 0x21
	SecondaryPICCommand uint16 = 0xA0
	SecondaryPICData    uint16 = 0xA1

	// EOI is the non-specific end-of-interrupt command byte.
	EOI uint8 = 0x20
)

// PCI configuration mechanism #1 ports.
const (
	PCIConfigAddress uint16 = 0xCF8
	PCIConfigData    uint16 = 0xCFC
)

// Registers holds the general-purpose registers captured at trap entry.
// For vector 0x80 they carry the system call number and its arguments.
type Registers struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
}

// DumpTo writes the register contents to w.
func (r Registers) DumpTo(w io.Writer) {
	fmt.Fprintf(w, "EAX:%X EBX:%X ECX:%X EDX:%X\n", r.EAX, r.EBX, r.ECX, r.EDX)
}

// TrapFunc is the single trap entry installed into the machine.
type TrapFunc func(ctx context.Context, vector uint32)

// Machine is the processor as seen by the executive.
type Machine interface {
	// Install sets the routine invoked for every interrupt, exception and
	// software interrupt.
	Install(entry TrapFunc)

	// Registers returns the general-purpose registers of the current trap.
	Registers() Registers

	Inb(port uint16) uint8
	Outb(port uint16, value uint8)
	Inl(port uint16) uint32
	Outl(port uint16, value uint32)

	EnableInterrupts()
	DisableInterrupts()

	// Halt suspends the processor until the next hardware interrupt has
	// been delivered, or until ctx is done.
	Halt(ctx context.Context)

	// HaltForever parks the processor permanently.
	HaltForever()

	// SoftwareInterrupt loads regs and executes int vector synchronously.
	SoftwareInterrupt(ctx context.Context, vector uint32, regs Registers)
}
