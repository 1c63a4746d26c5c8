package session

import (
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/display"
)

// Snapshot is a point-in-time view of the session for the monitor.
type Snapshot struct {
	Items      []ObjectInfo        `json:"items"`
	Focus      int                 `json:"focus"`
	Modules    []ObjectInfo        `json:"modules"`
	Background *display.Background `json:"background,omitempty"`
	Redraws    uint64              `json:"redraws"`
}

// ObjectInfo describes one item or module.
type ObjectInfo struct {
	Index        int      `json:"index"`
	Name         string   `json:"name"`
	Capabilities []string `json:"capabilities"`
}

// Snapshot captures the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Items:   make([]ObjectInfo, 0, len(s.items)),
		Focus:   s.current,
		Redraws: s.display.Redraws(),
	}
	for i, item := range s.items {
		snap.Items = append(snap.Items, describe(i, item.Name(), item.Capabilities()))
	}
	for i, m := range s.modules.List() {
		snap.Modules = append(snap.Modules, describe(i, m.Name(), m.Capabilities()))
	}
	if bg, ok := s.display.Background(); ok {
		snap.Background = &bg
	}
	return snap
}

func describe(index int, name string, caps []capability.Tag) ObjectInfo {
	info := ObjectInfo{Index: index, Name: name, Capabilities: make([]string, 0, len(caps))}
	for _, tag := range caps {
		info.Capabilities = append(info.Capabilities, string(tag))
	}
	return info
}
