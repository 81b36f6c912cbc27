package system

import (
	"testing"

	"altos/interrupts"
)

type fakePIO struct {
	regs [4]uint8
}

func (p *fakePIO) Read(offset int) uint8        { return p.regs[offset&3] }
func (p *fakePIO) Write(offset int, data uint8) { p.regs[offset&3] = data }

func TestC68ksbc_Memory(t *testing.T) {
	s := NewC68ksbc(nil)
	rom := []byte{0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x04, 0x00}
	if err := s.LoadROM(rom); err != nil {
		t.Fatal(err)
	}
	if err := s.LoadROM(make([]byte, sbcROMEnd+1)); err == nil {
		t.Error("oversized rom accepted")
	}

	ssp, pc := s.ResetVectors()
	if ssp != 0x4000 || pc != 0x400 {
		t.Errorf("vectors = %06x %06x", ssp, pc)
	}

	tests := []struct {
		name string
		addr uint32
		data uint16
		want uint16
	}{
		{"rom is read only", 0x000002, 0x1234, 0x4000},
		{"ram start", 0x003000, 0xcafe, 0xcafe},
		{"ram end", 0x5ffffe, 0xbeef, 0xbeef},
		{"unmapped", 0x700000, 0x5555, 0xffff},
		{"24 bit wrap", 0x1003000, 0x0102, 0x0102},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.WriteWord(tt.addr, tt.data)
			if got := s.ReadWord(tt.addr); got != tt.want {
				t.Errorf("ReadWord(%06x) = %04x, want %04x", tt.addr, got, tt.want)
			}
		})
	}
}

func TestC68ksbc_ACIA(t *testing.T) {
	var irq interrupts.Latch
	s := NewC68ksbc(&irq)
	s.Reset()

	// the ACIA only answers on odd addresses
	s.WriteByte(0x600001, 0x95)
	if got := s.ReadByte(0x600001); got != 0x02 {
		t.Errorf("status = %02x, want 02", got)
	}
	if got := s.ReadByte(0x600000); got != 0xff {
		t.Errorf("even byte = %02x, want ff", got)
	}

	s.ACIA.Receive('k')
	if !irq.State() {
		t.Error("receive interrupt not raised")
	}
	if got := s.InByte(3); got != 'k' {
		t.Errorf("data = %02x", got)
	}
	if s.Dump() == "" {
		t.Error("empty dump")
	}
}

func TestMCCPM_Reset(t *testing.T) {
	m := NewMCCPM(nil, &fakePIO{})
	boot := make([]byte, mccpmBoot)
	boot[0], boot[1], boot[2] = 0xc3, 0x00, 0xf0
	if err := m.LoadROM(boot); err != nil {
		t.Fatal(err)
	}
	if err := m.LoadROM(boot[:0xd00]); err == nil {
		t.Error("short monitor accepted")
	}

	m.WriteByte(0, 0x76)
	m.WriteByte(0x1000, 0x55)
	m.Reset()
	if m.ReadByte(0) != 0xc3 || m.ReadByte(2) != 0xf0 {
		t.Errorf("monitor not copied: %02x %02x", m.ReadByte(0), m.ReadByte(2))
	}
	if m.ReadByte(0x1000) != 0x55 {
		t.Error("reset cleared RAM above the monitor")
	}
	if m.ReadByte(0x10000) != 0xc3 {
		t.Error("address not wrapped to 16 bits")
	}
}

func TestMCCPM_IO(t *testing.T) {
	var irq interrupts.Latch
	pio := &fakePIO{}
	m := NewMCCPM(&irq, pio)

	tests := []struct {
		name string
		port uint16
		want uint8
	}{
		{"unmapped", 0x10, 0xff},
		{"pio", 0xf5, 0x33},
		{"pio high byte ignored", 0x12f5, 0x33},
		{"sio a control", 0xf1, 0x2c},
	}
	m.OutByte(0xf5, 0x33)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.InByte(tt.port); got != tt.want {
				t.Errorf("InByte(%04x) = %02x, want %02x", tt.port, got, tt.want)
			}
		})
	}

	// ba_cd: offset 1 is channel A control, 0 channel A data
	m.OutByte(0xf1, 1)
	m.OutByte(0xf1, 0x10)
	m.OutByte(0xf1, 3)
	m.OutByte(0xf1, 0x01)
	m.SIO.Channel(0).Receive('z')
	m.Step()
	if !irq.State() {
		t.Error("SIO interrupt not raised")
	}
	if got := m.InByte(0xf0); got != 'z' {
		t.Errorf("data = %02x", got)
	}
}
