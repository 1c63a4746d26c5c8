// Package serial drives a 16550 UART. Received bytes are split into lines;
// Write transmits.
package serial

import (
	"bytes"
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
)

// Register offsets from the base port.
const (
	RegData        uint16 = 0
	RegIntEnable   uint16 = 1
	RegFIFO        uint16 = 2
	RegLineControl uint16 = 3
	RegModem       uint16 = 4
	RegLineStatus  uint16 = 5

	LineDataReady uint8 = 0x01
	LineTHREmpty  uint8 = 0x20

	maxDrain = 256
)

// Driver is the serial module.
type Driver struct {
	port   uint16
	irq    uint8
	ports  drivers.Ports
	onLine func(line string)
	logger *logging.Logger

	mu      sync.Mutex
	partial []byte
	lines   []string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLineHandler is called for every complete received line.
func WithLineHandler(fn func(line string)) Option {
	return func(d *Driver) { d.onLine = fn }
}

// New programs the UART at port for 38400 8N1 with receive interrupts.
func New(ports drivers.Ports, port uint16, irq uint8, logger *logging.Logger, opts ...Option) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Driver{port: port, irq: irq, ports: ports, logger: logger.Named("serial")}
	for _, opt := range opts {
		opt(d)
	}

	ports.Outb(port+RegIntEnable, 0x00)
	ports.Outb(port+RegLineControl, 0x80) // DLAB
	ports.Outb(port+RegData, 0x03)        // divisor low: 38400 baud
	ports.Outb(port+RegIntEnable, 0x00)   // divisor high
	ports.Outb(port+RegLineControl, 0x03) // 8N1
	ports.Outb(port+RegFIFO, 0xC7)
	ports.Outb(port+RegModem, 0x0B)
	ports.Outb(port+RegIntEnable, 0x01) // data available
	return d
}

func (d *Driver) Name() string { return "serial" }

func (d *Driver) Capabilities() capability.Set { return drivers.Capabilities() }

// HandlesIRQ claims the configured line.
func (d *Driver) HandlesIRQ(line uint8) bool { return line == d.irq }

// OnIRQ reads until the receive buffer is empty.
func (d *Driver) OnIRQ(ctx context.Context, line uint8) {
	d.mu.Lock()
	var done []string
	for i := 0; i < maxDrain && d.ports.Inb(d.port+RegLineStatus)&LineDataReady != 0; i++ {
		b := d.ports.Inb(d.port + RegData)
		if b == '\r' {
			continue
		}
		if b != '\n' {
			d.partial = append(d.partial, b)
			continue
		}
		line := string(d.partial)
		d.partial = d.partial[:0]
		d.lines = append(d.lines, line)
		done = append(done, line)
	}
	d.mu.Unlock()

	for _, line := range done {
		d.logger.Debug("line received", zap.String("line", line))
		if d.onLine != nil {
			d.onLine(line)
		}
	}
}

// Lines returns and clears the received lines.
func (d *Driver) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.lines
	d.lines = nil
	return out
}

// Write transmits p, converting \n to \r\n.
func (d *Driver) Write(p []byte) (int, error) {
	for _, b := range bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n")) {
		d.ports.Outb(d.port+RegData, b)
	}
	return len(p), nil
}
