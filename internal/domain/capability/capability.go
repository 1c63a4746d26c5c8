// Package capability describes the objects the session holds: items such as
// a file manager or a running executor, and the modules in the registry.
//
// Every object declares the capabilities it supports. Callers query an
// object for a capability and obtain a typed handle only when the object
// both declares the tag and implements the matching interface; unsupported
// queries fail without fault.
package capability

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUndeclared is returned by Verify when an object declares a capability
// it does not implement.
var ErrUndeclared = errors.New("declared capability not implemented")

// Tag names one capability.
type Tag string

const (
	Executor    Tag = "executor"
	FileManager Tag = "file_manager"
	IRQ         Tag = "irq"
	Scheme      Tag = "scheme"
	Poll        Tag = "poll"
)

// Set is a declared capability set.
type Set []Tag

// Has reports whether tag is in the set.
func (s Set) Has(tag Tag) bool {
	return slices.Contains(s, tag)
}

// Object is anything the session or the module registry holds.
type Object interface {
	Name() string
	Capabilities() Set
}

// Supports reports whether obj declares tag. A nil object supports nothing.
func Supports(obj Object, tag Tag) bool {
	if obj == nil {
		return false
	}
	return obj.Capabilities().Has(tag)
}

// As returns obj as T when obj declares tag and implements T.
func As[T any](obj Object, tag Tag) (T, bool) {
	var zero T
	if !Supports(obj, tag) {
		return zero, false
	}
	t, ok := obj.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Conformance maps a tag to the check proving an object implements it.
type Conformance map[Tag]func(Object) bool

// Implements builds a conformance check for interface T.
func Implements[T any]() func(Object) bool {
	return func(obj Object) bool {
		_, ok := obj.(T)
		return ok
	}
}

// Verify checks every declared tag that has a conformance rule.
func (c Conformance) Verify(obj Object) error {
	if obj == nil {
		return fmt.Errorf("nil object")
	}
	for _, tag := range obj.Capabilities() {
		check, ok := c[tag]
		if !ok {
			continue
		}
		if !check(obj) {
			return fmt.Errorf("%s declares %s: %w", obj.Name(), tag, ErrUndeclared)
		}
	}
	return nil
}
