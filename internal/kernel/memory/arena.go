// Package memory provides the allocation capability the executive consumes:
// allocate N bytes, free an address. Arena is a bump allocator with exact-size
// reuse standing in for the page/cluster allocator.
package memory

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrOutOfMemory = errors.New("out of memory")
	ErrBadFree     = errors.New("free of unallocated address")
	ErrZeroSize    = errors.New("zero-size allocation")
)

const align = 16

// Allocator is the capability the kernel depends on.
type Allocator interface {
	Alloc(size uintptr) (uintptr, error)
	Free(addr uintptr) error
}

// Stats describes arena usage.
type Stats struct {
	Base        uintptr `json:"base" yaml:"base" toml:"base"`
	Size        uintptr `json:"size" yaml:"size" toml:"size"`
	Used        uintptr `json:"used" yaml:"used" toml:"used"`
	Free        uintptr `json:"free" yaml:"free" toml:"free"`
	Live        int     `json:"live" yaml:"live" toml:"live"`
	Allocations uint64  `json:"allocations" yaml:"allocations" toml:"allocations"`
	Frees       uint64  `json:"frees" yaml:"frees" toml:"frees"`
}

// Arena hands out addresses from [base, base+size).
type Arena struct {
	mu       sync.Mutex
	base     uintptr
	size     uintptr
	next     uintptr
	live     map[uintptr]uintptr
	recycled map[uintptr][]uintptr
	used     uintptr
	allocs   uint64
	frees    uint64
}

// NewArena creates an arena. Base must be non-zero so that no allocation
// ever returns address 0.
func NewArena(base, size uintptr) (*Arena, error) {
	if base == 0 {
		return nil, fmt.Errorf("arena base must be non-zero")
	}
	if size < align {
		return nil, fmt.Errorf("arena size %d too small", size)
	}
	a := &Arena{base: roundUp(base), size: size}
	a.Reset()
	return a, nil
}

// Reset discards every allocation.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next = a.base
	a.live = make(map[uintptr]uintptr)
	a.recycled = make(map[uintptr][]uintptr)
	a.used = 0
}

// Alloc returns the address of size bytes.
func (a *Arena) Alloc(size uintptr) (uintptr, error) {
	if size == 0 {
		return 0, ErrZeroSize
	}
	size = roundUp(size)

	a.mu.Lock()
	defer a.mu.Unlock()

	var addr uintptr
	if free := a.recycled[size]; len(free) > 0 {
		addr = free[len(free)-1]
		a.recycled[size] = free[:len(free)-1]
	} else {
		if a.next+size > a.base+a.size {
			return 0, fmt.Errorf("alloc %d bytes: %w", size, ErrOutOfMemory)
		}
		addr = a.next
		a.next += size
	}

	a.live[addr] = size
	a.used += size
	a.allocs++
	return addr, nil
}

// Free releases addr for reuse by allocations of the same size.
func (a *Arena) Free(addr uintptr) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.live[addr]
	if !ok {
		return fmt.Errorf("free %#x: %w", addr, ErrBadFree)
	}
	delete(a.live, addr)
	a.recycled[size] = append(a.recycled[size], addr)
	a.used -= size
	a.frees++
	return nil
}

// Stats returns a usage snapshot.
func (a *Arena) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Base:        a.base,
		Size:        a.size,
		Used:        a.used,
		Free:        a.size - a.used,
		Live:        len(a.live),
		Allocations: a.allocs,
		Frees:       a.frees,
	}
}

func roundUp(n uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
