// Package handle implements the owned handle table that carries values
// across the trap boundary. A handle is the address of an arena slot, so it
// fits a 32-bit register, but it is only ever used as a key: the receiving
// side looks the value up and removes it, which makes every transfer
// single-use.
package handle

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/GriffinCanCode/AgentOS/executive/internal/kernel/memory"
)

// ErrUnknownHandle is returned for handles that were never issued or were
// already taken.
var ErrUnknownHandle = errors.New("unknown handle")

// Handle is a register-sized key into a Table.
type Handle uint32

// DefaultSlotSize is the arena footprint of one entry.
const DefaultSlotSize = 16

// Table maps handles to values of type T.
type Table[T any] struct {
	mu      sync.Mutex
	alloc   memory.Allocator
	slot    uintptr
	entries map[Handle]T
}

// New creates a table whose slots come from alloc.
func New[T any](alloc memory.Allocator, slotSize uintptr) *Table[T] {
	if slotSize == 0 {
		slotSize = DefaultSlotSize
	}
	return &Table[T]{
		alloc:   alloc,
		slot:    slotSize,
		entries: make(map[Handle]T),
	}
}

// Put stores v and returns its handle.
func (t *Table[T]) Put(v T) (Handle, error) {
	addr, err := t.alloc.Alloc(t.slot)
	if err != nil {
		return 0, fmt.Errorf("allocate handle slot: %w", err)
	}
	if addr > math.MaxUint32 {
		_ = t.alloc.Free(addr)
		return 0, fmt.Errorf("slot %#x does not fit a register", addr)
	}

	h := Handle(addr)
	t.mu.Lock()
	t.entries[h] = v
	t.mu.Unlock()
	return h, nil
}

// Take removes the value for h and frees its slot.
func (t *Table[T]) Take(h Handle) (T, error) {
	t.mu.Lock()
	v, ok := t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	t.mu.Unlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("take %#x: %w", uint32(h), ErrUnknownHandle)
	}
	if err := t.alloc.Free(uintptr(h)); err != nil {
		return v, fmt.Errorf("release slot %#x: %w", uint32(h), err)
	}
	return v, nil
}

// TakeIf takes h only when match reports true for its current value. It
// lets an issuer reclaim its own entry without stealing a reused slot.
func (t *Table[T]) TakeIf(h Handle, match func(T) bool) (T, bool) {
	t.mu.Lock()
	v, ok := t.entries[h]
	if ok && match(v) {
		delete(t.entries, h)
	} else {
		ok = false
	}
	t.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	_ = t.alloc.Free(uintptr(h))
	return v, true
}

// Load returns the value for h without removing it.
func (t *Table[T]) Load(h Handle) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.entries[h]
	if !ok {
		var zero T
		return zero, fmt.Errorf("load %#x: %w", uint32(h), ErrUnknownHandle)
	}
	return v, nil
}

// Live returns the number of outstanding handles.
func (t *Table[T]) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
