package schemes

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
)

// Base implements naming, scheme ownership and completion delivery for a
// scheme module. Embed it and add Fetch.
type Base struct {
	name        string
	schemes     []string
	completions module.Completions
}

// NewBase creates a base owning the given schemes.
func NewBase(name string, schemes ...string) *Base {
	return &Base{name: name, schemes: schemes}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Capabilities() capability.Set {
	return capability.Set{capability.Scheme, capability.Poll}
}

// OwnsScheme matches scheme case-insensitively.
func (b *Base) OwnsScheme(scheme string) bool {
	for _, s := range b.schemes {
		if strings.EqualFold(s, scheme) {
			return true
		}
	}
	return false
}

// OnPoll delivers every completed fetch.
func (b *Base) OnPoll(ctx context.Context) {
	b.completions.Drain()
}

// Complete queues resp for deliver. Safe from any goroutine.
func (b *Base) Complete(deliver module.Deliver, resp resource.Response) {
	b.completions.Push(deliver, resp)
}

// Pending returns how many completions await the next poll.
func (b *Base) Pending() int {
	return b.completions.Pending()
}

// Target returns the module-relative name in u, accepting both
// scheme:name and scheme://name forms.
func Target(u resource.URL) string {
	if p := u.Path(); p != "" {
		return p
	}
	return u.Host()
}
