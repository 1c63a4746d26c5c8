// Package kernel is the executive: the single trap entry that multiplexes
// CPU exceptions, hardware interrupts and system calls, the boot sequence,
// and the idle loop.
//
// Masking model:
//
// A Kernel owns a one-slot semaphore standing for "interrupts masked".
// Trap acquires it on entry and releases it on exit, so traps run to
// completion one at a time. The idle loop is the only code that drops it
// mid-trap: between EnableInterrupts and DisableInterrupts, while the
// processor halts. A system call issued from inside a trap (a script
// running in a continuation) re-enters Trap on a context that already
// carries the kernel's mark and does not acquire it again.
//
// Code outside a trap reaches the session only through Exclusive.
//
// System calls (vector 0x80, call number in EAX):
//
//	0x1  Session Request   EBX = URL handle, ECX = continuation handle
package kernel
