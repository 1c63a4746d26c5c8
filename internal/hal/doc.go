// Package hal is the hardware abstraction layer of the executive.
//
// Everything the trap dispatcher needs from the processor is reached through
// the Machine interface:
//   - Register capture at trap entry
//   - 8-bit and 32-bit port I/O (interrupt controllers, UART, PS/2, PCI)
//   - Interrupt flag control (sti / cli) and hlt
//   - Synchronous software interrupts (int 0x80)
//
// Sim is a software machine for hosted runs and tests. It models a pair of
// cascaded 8259 PICs, a periodic PIT tick on IRQ 0, input FIFOs per port and
// a PCI configuration space reached through ports 0xCF8/0xCFC.
//
// Console is the low-level serial/debug channel. Lines written to it are
// unstructured text and may be streamed to subscribers.
package hal
