// Package memory serves the memory: scheme, which reports allocator and
// handle-table usage as a JSON, YAML or TOML document.
//
//	memory:stats.json
//	memory://stats.toml
package memory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	kmem "github.com/GriffinCanCode/AgentOS/executive/internal/kernel/memory"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/encode"
)

// StatsSource reports allocator usage.
type StatsSource interface {
	Stats() kmem.Stats
}

// Document is the rendered report.
type Document struct {
	Arena   ArenaDoc `json:"arena" yaml:"arena" toml:"arena"`
	Handles int      `json:"handles" yaml:"handles" toml:"handles"`
}

// ArenaDoc mirrors kmem.Stats with encoder-friendly field types.
type ArenaDoc struct {
	Base        string `json:"base" yaml:"base" toml:"base"`
	Size        uint64 `json:"size" yaml:"size" toml:"size"`
	Used        uint64 `json:"used" yaml:"used" toml:"used"`
	Free        uint64 `json:"free" yaml:"free" toml:"free"`
	Live        int    `json:"live" yaml:"live" toml:"live"`
	Allocations uint64 `json:"allocations" yaml:"allocations" toml:"allocations"`
	Frees       uint64 `json:"frees" yaml:"frees" toml:"frees"`
}

// Scheme is the memory: module.
type Scheme struct {
	*schemes.Base
	source  StatsSource
	handles func() int
	logger  *logging.Logger
}

// New reports on source. handles, when set, counts outstanding handles.
func New(source StatsSource, handles func() int, logger *logging.Logger) *Scheme {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheme{
		Base:    schemes.NewBase("memory", "memory"),
		source:  source,
		handles: handles,
		logger:  logger.Named("memory"),
	}
}

// Fetch renders the report and queues it.
func (s *Scheme) Fetch(ctx context.Context, u resource.URL, deliver module.Deliver) {
	resp, err := s.Render(u)
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
		return
	}
	s.Complete(deliver, resp)
}

// Render builds the response for u.
func (s *Scheme) Render(u resource.URL) (resource.Response, error) {
	target := schemes.Target(u)
	switch encode.Trim(target) {
	case "", "stats":
	default:
		return resource.Response{}, fmt.Errorf("memory: unknown document %q", target)
	}

	format := encode.ForPath(target)
	data, err := encode.Marshal(format, s.Snapshot())
	if err != nil {
		return resource.Response{}, err
	}
	return resource.Response{
		URL:  u,
		Data: data,
		MIME: format.MIME(),
		Meta: map[string]string{"format": string(format)},
	}, nil
}

// Snapshot collects the current figures.
func (s *Scheme) Snapshot() Document {
	st := s.source.Stats()
	doc := Document{
		Arena: ArenaDoc{
			Base:        fmt.Sprintf("0x%X", st.Base),
			Size:        uint64(st.Size),
			Used:        uint64(st.Used),
			Free:        uint64(st.Free),
			Live:        st.Live,
			Allocations: st.Allocations,
			Frees:       st.Frees,
		},
	}
	if s.handles != nil {
		doc.Handles = s.handles()
	}
	return doc
}
