package interrupts

import "fmt"

// ICW1 bits
const (
	icw1IC4  = 0x01
	icw1SNGL = 0x02
	icw1LTIM = 0x08
	icw1Init = 0x10
)

// ICW4 / OCW bits
const (
	icw4AEOI   = 0x02
	ocw3Select = 0x08
	ocw3RR     = 0x02
	ocw3RIS    = 0x01
)

// OCW2 commands (bits 7..5)
const (
	ocw2NonSpecificEOI = 1
	ocw2SpecificEOI    = 3
)

// PIC is the subset of an 8259A the boards need: fixed priority,
// cascade, EOI, masking. Rotation, poll and special mask mode are not
// implemented.
type PIC struct {
	Name string

	irr, isr, imr uint8
	lines         uint8

	icw1, icw2, icw3, icw4 uint8
	initStep               int

	readISR bool
	autoEOI bool
	level   bool

	// master is the SP/EN pin: true on the master of a cascade
	master bool

	out      Line
	outState bool

	// SlaveAck is called when a cascaded input is acknowledged on the master;
	// it returns the slave's vector.
	SlaveAck func(ir int) uint8
}

// NewPIC returns a PIC driving out. master selects the SP/EN strap.
func NewPIC(name string, master bool, out Line) *PIC {
	if out == nil {
		out = Nop
	}
	p := &PIC{Name: name, master: master, out: out}
	p.Reset()
	return p
}

// Reset puts the PIC back into its power-on state. The INT output is
// dropped if it was up.
func (p *PIC) Reset() {
	p.irr, p.isr, p.imr = 0, 0, 0
	p.initStep = 0
	p.readISR = false
	p.autoEOI = false
	p.update()
}

// IR drives interrupt request input n.
func (p *PIC) IR(n int, state bool) {
	mask := uint8(1) << uint(n&7)
	if state {
		if p.level || p.lines&mask == 0 {
			p.irr |= mask
		}
		p.lines |= mask
	} else {
		p.lines &^= mask
		p.irr &^= mask
	}
	p.update()
}

// Input returns a Line wired to input n
func (p *PIC) Input(n int) Line {
	return LineFunc(func(state bool) { p.IR(n, state) })
}

// pending returns the highest priority request that may interrupt, or -1
func (p *PIC) pending() int {
	for ir := 0; ir < 8; ir++ {
		mask := uint8(1) << uint(ir)
		if p.isr&mask != 0 {
			return -1
		}
		if p.irr&^p.imr&mask != 0 {
			return ir
		}
	}
	return -1
}

func (p *PIC) update() {
	state := p.initStep == 0 && p.pending() >= 0
	if state != p.outState {
		p.outState = state
		p.out.Set(state)
	}
}

// INT returns the level of the INT output
func (p *PIC) INT() bool {
	return p.outState
}

// Acknowledge runs the INTA cycle and returns the 8086 vector. Nothing
// pending gives the spurious IR7 vector.
func (p *PIC) Acknowledge() uint8 {
	ir := p.pending()
	if ir < 0 {
		return p.icw2&0xf8 | 7
	}
	mask := uint8(1) << uint(ir)
	p.irr &^= mask
	if p.level && p.lines&mask != 0 {
		p.irr |= mask
	}
	if !p.autoEOI {
		p.isr |= mask
	}
	p.update()

	if p.master && p.icw1&icw1SNGL == 0 && p.icw3&mask != 0 && p.SlaveAck != nil {
		return p.SlaveAck(ir)
	}
	return p.icw2&0xf8 | uint8(ir)
}

// Read returns IRR or ISR (A0 = 0, selected by OCW3) or IMR (A0 = 1)
func (p *PIC) Read(a0 int) uint8 {
	if a0&1 == 1 {
		return p.imr
	}
	if p.readISR {
		return p.isr
	}
	return p.irr
}

// Write handles ICW and OCW writes
func (p *PIC) Write(a0 int, data uint8) {
	if a0&1 == 0 {
		switch {
		case data&icw1Init != 0:
			p.icw1 = data
			p.imr, p.isr, p.irr = 0, 0, 0
			p.level = data&icw1LTIM != 0
			p.readISR = false
			p.autoEOI = false
			p.initStep = 2
		case data&ocw3Select != 0:
			if data&ocw3RR != 0 {
				p.readISR = data&ocw3RIS != 0
			}
		default:
			switch data >> 5 {
			case ocw2NonSpecificEOI:
				for ir := 0; ir < 8; ir++ {
					if p.isr&(1<<uint(ir)) != 0 {
						p.isr &^= 1 << uint(ir)
						break
					}
				}
			case ocw2SpecificEOI:
				p.isr &^= 1 << (data & 7)
			}
		}
		p.update()
		return
	}

	switch p.initStep {
	case 2:
		p.icw2 = data
		switch {
		case p.icw1&icw1SNGL == 0:
			p.initStep = 3
		case p.icw1&icw1IC4 != 0:
			p.initStep = 4
		default:
			p.initStep = 0
		}
	case 3:
		p.icw3 = data
		if p.icw1&icw1IC4 != 0 {
			p.initStep = 4
		} else {
			p.initStep = 0
		}
	case 4:
		p.icw4 = data
		p.autoEOI = data&icw4AEOI != 0
		p.initStep = 0
	default:
		p.imr = data
	}
	p.update()
}

// Dump returns a one line summary of the register file
func (p *PIC) Dump() string {
	return fmt.Sprintf("%s: IRR %02x ISR %02x IMR %02x base %02x INT %v",
		p.Name, p.irr, p.isr, p.imr, p.icw2&0xf8, p.outState)
}
