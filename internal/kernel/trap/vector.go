// Package trap names the interrupt vectors the executive dispatches on.
package trap

import "fmt"

// Vector is the discriminant the hardware presents to the trap entry.
type Vector uint32

const (
	DivideByZero        Vector = 0x00
	Debug               Vector = 0x01
	NMI                 Vector = 0x02
	Breakpoint          Vector = 0x03
	Overflow            Vector = 0x04
	BoundRangeExceeded  Vector = 0x05
	InvalidOpcode       Vector = 0x06
	DeviceNotAvailable  Vector = 0x07
	DoubleFault         Vector = 0x08
	InvalidTSS          Vector = 0x0A
	SegmentNotPresent   Vector = 0x0B
	StackSegmentFault   Vector = 0x0C
	GeneralProtection   Vector = 0x0D
	PageFault           Vector = 0x0E
	FloatingPoint       Vector = 0x10
	AlignmentCheck      Vector = 0x11
	MachineCheck        Vector = 0x12
	SIMDFloatingPoint   Vector = 0x13
	Virtualization      Vector = 0x14
	SecurityException   Vector = 0x1E
	LastReservedVector  Vector = 0x1F

	IRQBase       Vector = 0x20
	Timer         Vector = 0x20
	SecondaryBase Vector = 0x28
	IRQLimit      Vector = 0x30

	Syscall Vector = 0x80
	Boot    Vector = 0xFF
)

// Class is the routing decision for a vector.
type Class int

const (
	ClassUnknown Class = iota
	ClassException
	ClassIRQ
	ClassSyscall
	ClassBoot
)

// String returns the metric label for the class.
func (c Class) String() string {
	switch c {
	case ClassException:
		return "exception"
	case ClassIRQ:
		return "irq"
	case ClassSyscall:
		return "syscall"
	case ClassBoot:
		return "boot"
	default:
		return "unknown"
	}
}

var exceptionNames = map[Vector]string{
	DivideByZero:       "Divide by zero exception",
	Debug:              "Debug exception",
	NMI:                "Non-maskable interrupt",
	Breakpoint:         "Breakpoint exception",
	Overflow:           "Overflow exception",
	BoundRangeExceeded: "Bound range exceeded exception",
	InvalidOpcode:      "Invalid opcode exception",
	DeviceNotAvailable: "Device not available exception",
	DoubleFault:        "Double fault",
	InvalidTSS:         "Invalid TSS exception",
	SegmentNotPresent:  "Segment not present exception",
	StackSegmentFault:  "Stack-segment fault",
	GeneralProtection:  "General protection fault",
	PageFault:          "Page fault",
	FloatingPoint:      "x87 floating-point exception",
	AlignmentCheck:     "Alignment check exception",
	MachineCheck:       "Machine check exception",
	SIMDFloatingPoint:  "SIMD floating-point exception",
	Virtualization:     "Virtualization exception",
	SecurityException:  "Security exception",
}

// Classify routes v. Reserved exception slots without an architectural
// name are unclassified.
func Classify(v Vector) Class {
	switch {
	case v == Syscall:
		return ClassSyscall
	case v == Boot:
		return ClassBoot
	case v >= IRQBase && v < IRQLimit:
		return ClassIRQ
	case v <= LastReservedVector:
		if _, ok := exceptionNames[v]; ok {
			return ClassException
		}
	}
	return ClassUnknown
}

// ExceptionName returns the diagnostic for a named CPU exception.
func ExceptionName(v Vector) (string, bool) {
	name, ok := exceptionNames[v]
	return name, ok
}

// IRQLine converts an IRQ vector to its physical line number.
func (v Vector) IRQLine() uint8 {
	return uint8(v - IRQBase)
}

// forwarded lists the lines that have a session handler: keyboard, both
// serial pairs, the three PCI lines, mouse and the two disk channels.
var forwarded = [16]bool{1: true, 3: true, 4: true, 9: true, 10: true, 11: true, 12: true, 14: true, 15: true}

// Forwarded reports whether the IRQ is handed to the session. The timer and
// unwired lines are only acknowledged.
func (v Vector) Forwarded() bool {
	return v >= IRQBase && v < IRQLimit && forwarded[v-IRQBase]
}

// Cascaded reports whether the IRQ arrived through the secondary controller.
func (v Vector) Cascaded() bool {
	return v >= SecondaryBase && v < IRQLimit
}

// String formats the vector in hex.
func (v Vector) String() string {
	return fmt.Sprintf("%#x", uint32(v))
}
