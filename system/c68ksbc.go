package system

import (
	"fmt"

	"altos/interrupts"
	"altos/serial"
)

// 68k SBC memory map
const (
	sbcROMEnd  = 0x003000
	sbcRAMEnd  = 0x600000
	sbcACIA    = 0x600000
	sbcACIAEnd = 0x600004
	sbcAddress = 0xffffff
)

// C68ksbc is the 68000 single board computer: monitor ROM, 6MB of RAM
// and one 6850 on the low byte lane. The 68000 is big endian, so the low
// lane is the odd byte address.
type C68ksbc struct {
	ACIA *serial.ACIA

	rom []byte
	ram []byte
}

// NewC68ksbc returns the board, irq is the ACIA interrupt output
func NewC68ksbc(irq interrupts.Line) *C68ksbc {
	return &C68ksbc{
		ACIA: serial.NewACIA(irq),
		rom:  make([]byte, sbcROMEnd),
		ram:  make([]byte, sbcRAMEnd-sbcROMEnd),
	}
}

// Name of the machine
func (s *C68ksbc) Name() string {
	return "68ksbc"
}

// LoadROM installs the monitor
func (s *C68ksbc) LoadROM(region []byte) error {
	if len(region) > sbcROMEnd {
		return fmt.Errorf("rom is %d bytes, the window holds %d", len(region), sbcROMEnd)
	}
	copy(s.rom, region)
	return nil
}

// Reset resets the ACIA. RAM keeps its contents.
func (s *C68ksbc) Reset() {
	s.ACIA.Write(0, 0x03)
}

// Step services the host side of the ACIA
func (s *C68ksbc) Step() {
	s.ACIA.Step()
}

// ResetVectors returns the initial stack pointer and program counter the
// CPU fetches from the start of ROM
func (s *C68ksbc) ResetVectors() (uint32, uint32) {
	return s.ReadLong(0), s.ReadLong(4)
}

// ReadByte is a byte read, unmapped addresses read all ones
func (s *C68ksbc) ReadByte(addr uint32) uint8 {
	addr &= sbcAddress
	switch {
	case addr < sbcROMEnd:
		return s.rom[addr]
	case addr < sbcRAMEnd:
		return s.ram[addr-sbcROMEnd]
	case addr >= sbcACIA && addr < sbcACIAEnd && addr&1 != 0:
		return s.ACIA.Read(int(addr-sbcACIA) >> 1)
	}
	return 0xff
}

// WriteByte is a byte write. ROM and unmapped writes are dropped.
func (s *C68ksbc) WriteByte(addr uint32, data uint8) {
	addr &= sbcAddress
	switch {
	case addr < sbcROMEnd:
	case addr < sbcRAMEnd:
		s.ram[addr-sbcROMEnd] = data
	case addr >= sbcACIA && addr < sbcACIAEnd && addr&1 != 0:
		s.ACIA.Write(int(addr-sbcACIA)>>1, data)
	}
}

// ReadWord is a big endian word read
func (s *C68ksbc) ReadWord(addr uint32) uint16 {
	return uint16(s.ReadByte(addr))<<8 | uint16(s.ReadByte(addr+1))
}

// WriteWord is a big endian word write
func (s *C68ksbc) WriteWord(addr uint32, data uint16) {
	s.WriteByte(addr, uint8(data>>8))
	s.WriteByte(addr+1, uint8(data))
}

// ReadLong reads two words, high word first
func (s *C68ksbc) ReadLong(addr uint32) uint32 {
	return uint32(s.ReadWord(addr))<<16 | uint32(s.ReadWord(addr+2))
}

// InByte reads the peripheral window at 0x600000, the 68000 has no I/O space
func (s *C68ksbc) InByte(port uint16) uint8 {
	return s.ReadByte(sbcACIA | uint32(port))
}

// OutByte writes to the I/O window at 0x600000
func (s *C68ksbc) OutByte(port uint16, data uint8) {
	s.WriteByte(sbcACIA|uint32(port), data)
}

// Dump formats the board state
func (s *C68ksbc) Dump() string {
	ssp, pc := s.ResetVectors()
	return fmt.Sprintf("68ksbc: reset SSP %06x PC %06x ACIA irq %v\n", ssp, pc, s.ACIA.IRQ())
}
