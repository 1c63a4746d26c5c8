package module

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
)

// ErrDuplicateModule is returned when a name is registered twice.
var ErrDuplicateModule = errors.New("module already registered")

// Registry is the append-only, ordered module list. It is populated during
// boot and only read afterwards.
type Registry struct {
	modules     []Module
	names       map[string]int
	conformance capability.Conformance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names:       make(map[string]int),
		conformance: Conformance(),
	}
}

// Register appends m after checking its declared capabilities.
func (r *Registry) Register(m Module) error {
	if m == nil {
		return fmt.Errorf("module cannot be nil")
	}
	name := m.Name()
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if _, ok := r.names[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateModule)
	}
	if err := r.conformance.Verify(m); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}

	r.names[name] = len(r.modules)
	r.modules = append(r.modules, m)
	return nil
}

// Get retrieves a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	i, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.modules[i], true
}

// List returns the modules in registration order.
func (r *Registry) List() []Module {
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Len returns the number of modules.
func (r *Registry) Len() int {
	return len(r.modules)
}

// IRQHandlers returns every module claiming line, in registration order.
func (r *Registry) IRQHandlers(line uint8) []IRQHandler {
	var out []IRQHandler
	for _, m := range r.modules {
		h, ok := capability.As[IRQHandler](m, capability.IRQ)
		if ok && h.HandlesIRQ(line) {
			out = append(out, h)
		}
	}
	return out
}

// Resolve returns the first module owning scheme.
func (r *Registry) Resolve(scheme string) (SchemeResolver, string, bool) {
	for _, m := range r.modules {
		s, ok := capability.As[SchemeResolver](m, capability.Scheme)
		if ok && s.OwnsScheme(scheme) {
			return s, m.Name(), true
		}
	}
	return nil, "", false
}

// Pollers returns every module that wants idle-loop polling.
func (r *Registry) Pollers() []Poller {
	var out []Poller
	for _, m := range r.modules {
		if p, ok := capability.As[Poller](m, capability.Poll); ok {
			out = append(out, p)
		}
	}
	return out
}

// Stats returns registry statistics.
func (r *Registry) Stats() map[string]interface{} {
	counts := make(map[string]int)
	names := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		names = append(names, m.Name())
		for _, tag := range m.Capabilities() {
			counts[string(tag)]++
		}
	}

	return map[string]interface{}{
		"total_modules": len(r.modules),
		"modules":       names,
		"capabilities":  counts,
	}
}
