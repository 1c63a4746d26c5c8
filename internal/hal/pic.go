package hal

// PIC models one 8259A programmable interrupt controller.
type PIC struct {
	IRR uint8 // interrupt request register
	ISR uint8 // in-service register
	IMR uint8 // interrupt mask register

	eois int
}

// Request latches a request on line (0-7).
func (p *PIC) Request(line uint8) {
	p.IRR |= 1 << (line & 7)
}

// Acknowledge moves line from IRR to ISR as the CPU starts servicing it.
func (p *PIC) Acknowledge(line uint8) {
	bit := uint8(1) << (line & 7)
	p.IRR &^= bit
	p.ISR |= bit
}

// Command handles a byte written to the command port. Only the
// non-specific EOI is modelled: it clears the highest priority in-service bit.
func (p *PIC) Command(value uint8) {
	if value != EOI {
		return
	}
	p.eois++
	for i := uint8(0); i < 8; i++ {
		if p.ISR&(1<<i) != 0 {
			p.ISR &^= 1 << i
			return
		}
	}
}

// EOIs returns the number of end-of-interrupt commands received.
func (p PIC) EOIs() int {
	return p.eois
}

// InService reports whether line is currently being serviced.
func (p PIC) InService(line uint8) bool {
	return p.ISR&(1<<(line&7)) != 0
}
