// Package pci serves the pci: scheme. It enumerates devices through
// configuration mechanism #1 (ports 0xCF8/0xCFC) and renders the result as
// a document.
//
//	pci:devices.json
//	pci://devices.yaml
package pci

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/module"
	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/resource"
	"github.com/GriffinCanCode/AgentOS/executive/internal/hal"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes"
	"github.com/GriffinCanCode/AgentOS/executive/internal/schemes/encode"
)

// Bus is the configuration space accessor.
type Bus interface {
	Inl(port uint16) uint32
	Outl(port uint16, value uint32)
}

// Device is one enumerated function.
type Device struct {
	Bus         uint8  `json:"bus" yaml:"bus" toml:"bus"`
	Slot        uint8  `json:"slot" yaml:"slot" toml:"slot"`
	Function    uint8  `json:"function" yaml:"function" toml:"function"`
	Vendor      string `json:"vendor" yaml:"vendor" toml:"vendor"`
	Device      string `json:"device" yaml:"device" toml:"device"`
	Class       uint8  `json:"class" yaml:"class" toml:"class"`
	Subclass    uint8  `json:"subclass" yaml:"subclass" toml:"subclass"`
	IRQ         uint8  `json:"irq" yaml:"irq" toml:"irq"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// Document is the rendered device list.
type Document struct {
	Devices []Device `json:"devices" yaml:"devices" toml:"devices"`
}

var classNames = map[uint8]string{
	0x00: "unclassified",
	0x01: "mass storage controller",
	0x02: "network controller",
	0x03: "display controller",
	0x04: "multimedia controller",
	0x05: "memory controller",
	0x06: "bridge",
	0x07: "communication controller",
	0x08: "base system peripheral",
	0x09: "input device controller",
	0x0C: "serial bus controller",
}

// Scan enumerates every present function on buses [0, buses).
func Scan(bus Bus, buses int) []Device {
	var devices []Device
	for b := 0; b < buses; b++ {
		for slot := uint8(0); slot < 32; slot++ {
			if read(bus, uint8(b), slot, 0, 0)&0xFFFF == 0xFFFF {
				continue
			}
			functions := uint8(1)
			if header := read(bus, uint8(b), slot, 0, 0x0C); (header>>16)&0x80 != 0 {
				functions = 8
			}
			for fn := uint8(0); fn < functions; fn++ {
				if d, ok := probe(bus, uint8(b), slot, fn); ok {
					devices = append(devices, d)
				}
			}
		}
	}
	return devices
}

func probe(bus Bus, b, slot, fn uint8) (Device, bool) {
	id := read(bus, b, slot, fn, 0)
	vendor := uint16(id)
	if vendor == 0xFFFF {
		return Device{}, false
	}
	class := read(bus, b, slot, fn, 0x08)
	irq := read(bus, b, slot, fn, 0x3C)

	d := Device{
		Bus:      b,
		Slot:     slot,
		Function: fn,
		Vendor:   fmt.Sprintf("%04x", vendor),
		Device:   fmt.Sprintf("%04x", uint16(id>>16)),
		Class:    uint8(class >> 24),
		Subclass: uint8(class >> 16),
		IRQ:      uint8(irq),
	}
	d.Description = classNames[d.Class]
	if d.Description == "" {
		d.Description = "unknown"
	}
	return d, true
}

func read(bus Bus, b, slot, fn, offset uint8) uint32 {
	bus.Outl(hal.PCIConfigAddress, hal.PCIAddress(b, slot, fn, offset))
	return bus.Inl(hal.PCIConfigData)
}

// Scheme is the pci: module.
type Scheme struct {
	*schemes.Base
	bus    Bus
	buses  int
	logger *logging.Logger
}

// New enumerates through bus on every fetch. buses bounds the scan; zero
// means all 256.
func New(bus Bus, buses int, logger *logging.Logger) *Scheme {
	if logger == nil {
		logger = logging.NewNop()
	}
	if buses <= 0 || buses > 256 {
		buses = 256
	}
	return &Scheme{
		Base:   schemes.NewBase("pci", "pci"),
		bus:    bus,
		buses:  buses,
		logger: logger.Named("pci"),
	}
}

// Fetch scans the bus and queues the document.
func (s *Scheme) Fetch(ctx context.Context, u resource.URL, deliver module.Deliver) {
	target := schemes.Target(u)
	switch encode.Trim(target) {
	case "", "devices":
	default:
		s.logger.Warn("fetch failed", zap.String("url", u.String()), zap.String("reason", "unknown document"))
		return
	}

	devices := Scan(s.bus, s.buses)
	format := encode.ForPath(target)
	data, err := encode.Marshal(format, Document{Devices: devices})
	if err != nil {
		s.logger.Warn("fetch failed", zap.String("url", u.String()), zap.Error(err))
		return
	}
	s.logger.Debug("bus scanned", zap.Int("devices", len(devices)))
	s.Complete(deliver, resource.Response{
		URL:  u,
		Data: data,
		MIME: format.MIME(),
		Meta: map[string]string{"format": string(format), "devices": fmt.Sprint(len(devices))},
	})
}
