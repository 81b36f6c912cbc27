package system

import (
	"fmt"

	"altos/interrupts"
	"altos/serial"
)

const (
	mccpmRAM     = 0x10000
	mccpmBoot    = 0x1000
	mccpmIOMask  = 0xff
	mccpmSIO     = 0xf0
	mccpmPIO     = 0xf4
	mccpmPIOEnd  = 0xf8
	mccpmOpenBus = 0xff
)

// MCCPM is the mc-CP/M computer: a Z80 with 64K of RAM, the monitor ROM
// copied to the bottom of RAM at reset, a Z80-SIO and a Z80-PIO.
type MCCPM struct {
	SIO *serial.SIO
	PIO Device

	RAM  [mccpmRAM]uint8
	boot []byte
}

// NewMCCPM returns the board. irq is the Z80 INT input, pio may be nil.
func NewMCCPM(irq interrupts.Line, pio Device) *MCCPM {
	return &MCCPM{SIO: serial.NewSIO(irq), PIO: pio}
}

// Name of the machine
func (m *MCCPM) Name() string {
	return "mccpm"
}

// LoadROM keeps the monitor image copied into RAM on every reset
func (m *MCCPM) LoadROM(region []byte) error {
	if len(region) < mccpmBoot {
		return fmt.Errorf("monitor is %d bytes, want at least %d", len(region), mccpmBoot)
	}
	m.boot = append([]byte(nil), region[:mccpmBoot]...)
	return nil
}

// Reset copies the monitor to address 0 and resets the SIO
func (m *MCCPM) Reset() {
	copy(m.RAM[:], m.boot)
	m.SIO.Reset()
}

// Step services the host side of the SIO
func (m *MCCPM) Step() {
	m.SIO.Step()
}

// ReadByte reads RAM
func (m *MCCPM) ReadByte(addr uint32) uint8 {
	return m.RAM[addr&0xffff]
}

// WriteByte writes RAM
func (m *MCCPM) WriteByte(addr uint32, data uint8) {
	m.RAM[addr&0xffff] = data
}

// InByte is a Z80 IN. Only the low address byte is decoded.
func (m *MCCPM) InByte(port uint16) uint8 {
	port &= mccpmIOMask
	switch {
	case port >= mccpmSIO && port < mccpmPIO:
		return m.SIO.ReadBACD(int(port - mccpmSIO))
	case port >= mccpmPIO && port < mccpmPIOEnd && m.PIO != nil:
		return m.PIO.Read(int(port - mccpmPIO))
	}
	return mccpmOpenBus
}

// OutByte is a Z80 OUT
func (m *MCCPM) OutByte(port uint16, data uint8) {
	port &= mccpmIOMask
	switch {
	case port >= mccpmSIO && port < mccpmPIO:
		m.SIO.WriteBACD(int(port-mccpmSIO), data)
	case port >= mccpmPIO && port < mccpmPIOEnd && m.PIO != nil:
		m.PIO.Write(int(port-mccpmPIO), data)
	}
}

// Dump formats the board state
func (m *MCCPM) Dump() string {
	return fmt.Sprintf("mccpm: reset vector %02x %02x %02x\n%s", m.RAM[0], m.RAM[1], m.RAM[2], m.SIO.Dump())
}
