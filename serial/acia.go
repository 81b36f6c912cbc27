package serial

import (
	"io"

	"altos/interrupts"
)

// 6850 status bits
const (
	aciaRDRF = 0x01
	aciaTDRE = 0x02
	aciaIRQ  = 0x80

	aciaMasterReset = 0x03
	aciaRxIntEnable = 0x80
	aciaTxIntMask   = 0x60
	aciaTxIntEnable = 0x20
)

// ACIA is a 6850 without timing: bytes written are sent at once.
type ACIA struct {
	control uint8
	rx      []byte
	reset   bool

	out io.Writer
	in  <-chan byte

	irq      interrupts.Line
	irqState bool
}

// NewACIA returns an ACIA held in master reset, like after power on
func NewACIA(irq interrupts.Line) *ACIA {
	if irq == nil {
		irq = interrupts.Nop
	}
	return &ACIA{out: io.Discard, irq: irq, reset: true}
}

// Attach connects the ACIA to a host port
func (a *ACIA) Attach(port io.ReadWriter) {
	a.out = port
	a.in = pump(port)
}

// Receive queues a byte as if it had come in on RxD
func (a *ACIA) Receive(b byte) {
	a.rx = append(a.rx, b)
	a.update()
}

// Step pulls host bytes in
func (a *ACIA) Step() {
	for a.in != nil && len(a.rx) == 0 {
		select {
		case b, ok := <-a.in:
			if !ok {
				a.in = nil
				return
			}
			a.rx = append(a.rx, b)
		default:
			a.update()
			return
		}
	}
	a.update()
}

func (a *ACIA) status() uint8 {
	if a.reset {
		return 0
	}
	s := uint8(aciaTDRE)
	if len(a.rx) > 0 {
		s |= aciaRDRF
	}
	if a.irqState {
		s |= aciaIRQ
	}
	return s
}

func (a *ACIA) update() {
	state := false
	if !a.reset {
		state = a.control&aciaRxIntEnable != 0 && len(a.rx) > 0 ||
			a.control&aciaTxIntMask == aciaTxIntEnable
	}
	if state != a.irqState {
		a.irqState = state
		a.irq.Set(state)
	}
}

// Read returns status (offset 0) or received data (offset 1)
func (a *ACIA) Read(offset int) uint8 {
	if offset&1 == 0 {
		return a.status()
	}
	if len(a.rx) == 0 {
		return 0
	}
	b := a.rx[0]
	a.rx = a.rx[1:]
	a.update()
	return b
}

// Write sets control (offset 0) or sends data (offset 1)
func (a *ACIA) Write(offset int, data uint8) {
	if offset&1 == 0 {
		a.control = data
		a.reset = data&aciaMasterReset == aciaMasterReset
		if a.reset {
			a.rx = a.rx[:0]
		}
		a.update()
		return
	}
	if !a.reset {
		a.out.Write([]byte{data})
	}
}

// IRQ returns the level of the interrupt output
func (a *ACIA) IRQ() bool {
	return a.irqState
}
