// Package ps2 drives the 8042 controller: keyboard on IRQ 1 and mouse on
// IRQ 12.
package ps2

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/executive/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/executive/internal/drivers"
	"github.com/GriffinCanCode/AgentOS/executive/internal/infrastructure/logging"
)

// Controller ports, status bits and commands.
const (
	DataPort    uint16 = 0x60
	StatusPort  uint16 = 0x64
	CommandPort uint16 = 0x64

	StatusOutputFull uint8 = 0x01
	StatusAuxData    uint8 = 0x20

	CmdEnableKeyboard uint8 = 0xAE
	CmdEnableAux      uint8 = 0xA8

	KeyboardIRQ uint8 = 1
	MouseIRQ    uint8 = 12

	// maxDrain bounds the bytes read per interrupt.
	maxDrain = 32
)

// KeyEvent is one set-1 scancode.
type KeyEvent struct {
	Scancode uint8
	Pressed  bool
}

// MouseEvent is one decoded 3-byte packet.
type MouseEvent struct {
	Buttons uint8
	DX, DY  int
}

// Driver is the PS/2 module.
type Driver struct {
	ports  drivers.Ports
	logger *logging.Logger

	mu     sync.Mutex
	keys   []KeyEvent
	mice   []MouseEvent
	packet []uint8
}

// New creates the driver and enables both controller ports.
func New(ports drivers.Ports, logger *logging.Logger) *Driver {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Driver{ports: ports, logger: logger.Named("ps2")}
	ports.Outb(CommandPort, CmdEnableKeyboard)
	ports.Outb(CommandPort, CmdEnableAux)
	return d
}

func (d *Driver) Name() string { return "ps2" }

func (d *Driver) Capabilities() capability.Set { return drivers.Capabilities() }

// HandlesIRQ claims the keyboard and mouse lines.
func (d *Driver) HandlesIRQ(line uint8) bool {
	return line == KeyboardIRQ || line == MouseIRQ
}

// OnIRQ drains the controller output buffer.
func (d *Driver) OnIRQ(ctx context.Context, line uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := 0; i < maxDrain; i++ {
		status := d.ports.Inb(StatusPort)
		if status&StatusOutputFull == 0 {
			return
		}
		data := d.ports.Inb(DataPort)
		if status&StatusAuxData != 0 {
			d.mouseByte(data)
			continue
		}
		ev := KeyEvent{Scancode: data &^ 0x80, Pressed: data&0x80 == 0}
		d.keys = append(d.keys, ev)
		d.logger.Debug("key", zap.Uint8("scancode", ev.Scancode), zap.Bool("pressed", ev.Pressed))
	}
}

func (d *Driver) mouseByte(b uint8) {
	// Byte 0 always has bit 3 set; drop bytes until we are aligned.
	if len(d.packet) == 0 && b&0x08 == 0 {
		return
	}
	d.packet = append(d.packet, b)
	if len(d.packet) < 3 {
		return
	}

	flags := d.packet[0]
	dx, dy := int(d.packet[1]), int(d.packet[2])
	if flags&0x10 != 0 {
		dx -= 0x100
	}
	if flags&0x20 != 0 {
		dy -= 0x100
	}
	d.mice = append(d.mice, MouseEvent{Buttons: flags & 0x07, DX: dx, DY: dy})
	d.packet = d.packet[:0]
}

// Keys returns and clears the queued key events.
func (d *Driver) Keys() []KeyEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.keys
	d.keys = nil
	return out
}

// Mouse returns and clears the queued mouse events.
func (d *Driver) Mouse() []MouseEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.mice
	d.mice = nil
	return out
}
