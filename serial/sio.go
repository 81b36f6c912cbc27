package serial

import (
	"fmt"
	"io"

	"altos/interrupts"
)

// 8274 / Z80-SIO register bits
const (
	rr0RxAvailable = 0x01
	rr0IntPending  = 0x02
	rr0TxEmpty     = 0x04
	rr0DCD         = 0x08
	rr0CTS         = 0x20
	rr1AllSent     = 0x01

	wr1TxIntEnable = 0x02
	wr1RxIntMask   = 0x18
	wr3RxEnable    = 0x01
	wr5TxEnable    = 0x08

	rxFIFO = 3
)

// WR0 commands, bits 5..3
const (
	cmdChannelReset = 3
	cmdResetTxInt   = 5
)

// Channel is one half of the SIO
type Channel struct {
	Name string

	wr  [8]uint8
	ptr int

	rx []byte

	txIntPending bool
	dcd, cts     bool

	out io.Writer
	in  <-chan byte
}

func newChannel(name string) *Channel {
	ch := &Channel{Name: name, out: io.Discard, dcd: true, cts: true}
	ch.reset()
	return ch
}

func (ch *Channel) reset() {
	ch.wr = [8]uint8{}
	ch.ptr = 0
	ch.rx = ch.rx[:0]
	ch.txIntPending = false
}

// Attach connects the channel to a host port. Reading starts right away.
func (ch *Channel) Attach(port io.ReadWriter) {
	ch.out = port
	ch.in = pump(port)
}

// Receive queues a byte as if it had come in on RxD.
// Returns false when the FIFO is full (overrun).
func (ch *Channel) Receive(b byte) bool {
	if len(ch.rx) >= rxFIFO {
		return false
	}
	ch.rx = append(ch.rx, b)
	return true
}

func (ch *Channel) rxReady() bool {
	return len(ch.rx) > 0
}

func (ch *Channel) interrupting() bool {
	rxInt := ch.wr[1]&wr1RxIntMask != 0 && ch.wr[3]&wr3RxEnable != 0 && ch.rxReady()
	txInt := ch.wr[1]&wr1TxIntEnable != 0 && ch.txIntPending
	return rxInt || txInt
}

// drain moves host bytes into the FIFO
func (ch *Channel) drain() {
	for ch.in != nil && len(ch.rx) < rxFIFO {
		select {
		case b, ok := <-ch.in:
			if !ok {
				ch.in = nil
				return
			}
			ch.rx = append(ch.rx, b)
		default:
			return
		}
	}
}

func (ch *Channel) readData() uint8 {
	if !ch.rxReady() {
		return 0
	}
	b := ch.rx[0]
	ch.rx = ch.rx[1:]
	return b
}

func (ch *Channel) writeData(data uint8) {
	if ch.wr[5]&wr5TxEnable == 0 {
		return
	}
	ch.out.Write([]byte{data})
	// the byte leaves at once, so the buffer is empty again
	ch.txIntPending = true
}

func (ch *Channel) readControl(sio *SIO, b bool) uint8 {
	reg := ch.ptr
	ch.ptr = 0
	switch reg {
	case 0:
		v := uint8(rr0TxEmpty)
		if ch.rxReady() {
			v |= rr0RxAvailable
		}
		if !b && sio.irqState {
			v |= rr0IntPending
		}
		if ch.dcd {
			v |= rr0DCD
		}
		if ch.cts {
			v |= rr0CTS
		}
		return v
	case 1:
		return rr1AllSent
	case 2:
		if b {
			return sio.ch[1].wr[2]
		}
	}
	return 0
}

func (ch *Channel) writeControl(data uint8) {
	reg := ch.ptr
	ch.ptr = 0
	if reg != 0 {
		ch.wr[reg] = data
		return
	}
	ch.wr[0] = data
	ch.ptr = int(data & 7)
	switch (data >> 3) & 7 {
	case cmdChannelReset:
		ch.reset()
	case cmdResetTxInt:
		ch.txIntPending = false
	}
}

// SIO is the subset of an 8274 / Z80-SIO used as a dumb two port UART:
// polled or interrupt driven async I/O, no sync modes, no DMA.
type SIO struct {
	ch [2]*Channel

	irq      interrupts.Line
	irqState bool
}

// NewSIO returns an SIO driving irq
func NewSIO(irq interrupts.Line) *SIO {
	if irq == nil {
		irq = interrupts.Nop
	}
	return &SIO{
		ch:  [2]*Channel{newChannel("A"), newChannel("B")},
		irq: irq,
	}
}

// Channel returns channel 0 (A) or 1 (B)
func (s *SIO) Channel(n int) *Channel {
	return s.ch[n&1]
}

// Reset resets both channels
func (s *SIO) Reset() {
	s.ch[0].reset()
	s.ch[1].reset()
	s.update()
}

func (s *SIO) update() {
	state := s.ch[0].interrupting() || s.ch[1].interrupting()
	if state != s.irqState {
		s.irqState = state
		s.irq.Set(state)
	}
}

// Step pulls whatever the host ports have sent into the receive FIFOs
func (s *SIO) Step() {
	s.ch[0].drain()
	s.ch[1].drain()
	s.update()
}

func (s *SIO) read(b, control bool) uint8 {
	ch := s.ch[0]
	if b {
		ch = s.ch[1]
	}
	var v uint8
	if control {
		v = ch.readControl(s, b)
	} else {
		v = ch.readData()
	}
	s.update()
	return v
}

func (s *SIO) write(b, control bool, data uint8) {
	ch := s.ch[0]
	if b {
		ch = s.ch[1]
	}
	if control {
		ch.writeControl(data)
	} else {
		ch.writeData(data)
	}
	s.update()
}

// ReadCDBA decodes offset bit 1 as C/D and bit 0 as B/A (8274 wiring)
func (s *SIO) ReadCDBA(offset int) uint8 {
	return s.read(offset&1 != 0, offset&2 != 0)
}

// WriteCDBA is the write side of ReadCDBA
func (s *SIO) WriteCDBA(offset int, data uint8) {
	s.write(offset&1 != 0, offset&2 != 0, data)
}

// ReadBACD decodes offset bit 1 as B/A and bit 0 as C/D (Z80-SIO wiring)
func (s *SIO) ReadBACD(offset int) uint8 {
	return s.read(offset&2 != 0, offset&1 != 0)
}

// WriteBACD is the write side of ReadBACD
func (s *SIO) WriteBACD(offset int, data uint8) {
	s.write(offset&2 != 0, offset&1 != 0, data)
}

// IRQ returns the level of the interrupt output
func (s *SIO) IRQ() bool {
	return s.irqState
}

// Dump returns a line per channel
func (s *SIO) Dump() string {
	out := ""
	for _, ch := range s.ch {
		out += fmt.Sprintf("SIO %s: WR1 %02x WR3 %02x WR5 %02x rx %d txint %v\n",
			ch.Name, ch.wr[1], ch.wr[3], ch.wr[5], len(ch.rx), ch.txIntPending)
	}
	return out
}
