package system

import (
	"fmt"
	"io"
	"log"
	"strings"

	"altos/disk"
	"altos/hdc"
	"altos/interrupts"
	"altos/mmu"
	"altos/serial"
)

// fault register value with no fault latched
const noFault = 0xffff

// Config wires the ACS8600 to the chips modelled outside this package.
// Anything left nil is not connected.
type Config struct {
	// 8086 inputs
	NMI  interrupts.Line
	INTR interrupts.Line

	// 8089 inputs. CA and the ICS attention line are pulsed.
	DRQ1 interrupts.Line
	DRQ2 interrupts.Line
	SEL  interrupts.Line
	CA   interrupts.Line
	ICS  interrupts.Line

	FDC FDC
	PIT Device
	PPI Device

	Log *log.Logger
}

// Altos8600 is the ACS8600 main board: MMU, interrupt controllers, the
// hard disk controller and the serial ports, plus the glue between them.
type Altos8600 struct {
	MMU  *mmu.MMU
	PIC1 *interrupts.PIC
	PIC2 *interrupts.PIC
	PIC3 *interrupts.PIC
	HDC  *hdc.Controller
	SIO  *serial.SIO

	cfg Config
	log *log.Logger

	mode    Mode
	user    bool
	cpuif   bool
	nmiinh  bool
	nmistat bool

	mmuerr uint16
	eaddr  [2]uint16

	romport  [4]uint8
	dmamplex uint8
}

// NewAltos8600 builds the board and resets it
func NewAltos8600(cfg Config) *Altos8600 {
	for _, l := range []*interrupts.Line{&cfg.NMI, &cfg.INTR, &cfg.DRQ1, &cfg.DRQ2, &cfg.SEL, &cfg.CA, &cfg.ICS} {
		if *l == nil {
			*l = interrupts.Nop
		}
	}
	if cfg.Log == nil {
		cfg.Log = log.New(io.Discard, "", 0)
	}

	b := &Altos8600{cfg: cfg, log: cfg.Log}
	b.MMU = mmu.New(b, b.seterr)

	b.PIC1 = interrupts.NewPIC("PIC1", true, cfg.INTR)
	b.PIC2 = interrupts.NewPIC("PIC2", false, b.PIC1.Input(interrupts.IRPIC2))
	b.PIC3 = interrupts.NewPIC("PIC3", false, b.PIC1.Input(interrupts.IRPIC3))
	b.PIC1.SlaveAck = b.slaveAck

	b.HDC = hdc.New(cfg.DRQ1, b.PIC2.Input(interrupts.IRDisk), cfg.Log)
	b.SIO = serial.NewSIO(b.PIC1.Input(interrupts.IRSerial))

	b.mmuerr = noFault
	b.Reset()
	return b
}

// Name of the machine
func (b *Altos8600) Name() string {
	return "altos8600"
}

// User is true while the CPU runs in user mode
func (b *Altos8600) User() bool {
	return b.user
}

// Boot is true while the boot ROM is mapped
func (b *Altos8600) Boot() bool {
	return b.mode.Boot()
}

// Mode returns the mode register
func (b *Altos8600) Mode() Mode {
	return b.mode
}

// FaultRegister returns the active low fault register
func (b *Altos8600) FaultRegister() uint16 {
	return b.mmuerr
}

// FaultAddress returns the two latched fault address words
func (b *Altos8600) FaultAddress() (uint16, uint16) {
	return b.eaddr[0], b.eaddr[1]
}

// NMIPending is true from a fault until the fault register is cleared
func (b *Altos8600) NMIPending() bool {
	return b.nmistat
}

// LoadBIOS installs the 8K boot ROM
func (b *Altos8600) LoadBIOS(region []byte) error {
	if len(region) != mmu.BIOSWords*2 {
		return fmt.Errorf("bios is %d bytes, want %d", len(region), mmu.BIOSWords*2)
	}
	words := make([]uint16, mmu.BIOSWords)
	for i := range words {
		words[i] = uint16(region[i*2]) | uint16(region[i*2+1])<<8
	}
	b.MMU.SetBIOS(words)
	return nil
}

// AttachDisk connects a hard disk image, nil removes it
func (b *Altos8600) AttachDisk(img *disk.Image) {
	if img == nil {
		b.HDC.Attach(nil)
		return
	}
	b.HDC.Attach(img)
	b.log.Printf("hard disk %s attached, %s\n", img.Path(), img.Geometry())
}

// Reset is the board reset line. The page table and RAM are kept.
func (b *Altos8600) Reset() {
	b.mode.reset()
	b.romport[0] = 0x80
	b.cpuif = false
	b.user = false
	b.nmiinh = true
	b.nmistat = false
	b.mmuerr = noFault
	b.cfg.NMI.Set(false)

	b.PIC1.Reset()
	b.PIC2.Reset()
	b.PIC3.Reset()
	b.HDC.Reset()
	b.SIO.Reset()
}

// Step services the host side of the serial ports
func (b *Altos8600) Step() {
	b.SIO.Step()
}

// supervisor drops the CPU out of user mode
func (b *Altos8600) supervisor() {
	b.mode.Supervisor()
	b.user = false
}

// seterr latches a fault and raises NMI unless it is inhibited.
// offset is a word offset, mask the byte lanes of the failing cycle.
func (b *Altos8600) seterr(offset uint32, mask uint16, fault uint16) {
	b.log.Printf("Fault at %05x type %04x\n", offset<<1, fault)
	if !b.nmiinh {
		b.supervisor()
		b.cfg.NMI.Set(true)
	}
	b.nmistat = true
	b.mmuerr &^= fault

	lo := uint16(offset << 1)
	if mask&0x00ff == 0 {
		lo |= 1
	}
	hi := uint16(offset>>3) & 0xf000
	if b.user {
		hi |= 0x100
	}
	if b.mode.Boot() {
		hi |= 0x200
	}
	b.eaddr = [2]uint16{lo, hi}
}

// clearFault is the write to ports 0x08-0x0f
func (b *Altos8600) clearFault() {
	b.mmuerr = noFault
	b.cfg.NMI.Set(false)
	b.nmistat = false
}

func (s Space) permbit() uint {
	switch s {
	case Stack:
		return mmu.PermStack
	case Code:
		return mmu.PermCode
	case Extra:
		return mmu.PermExtra
	}
	return mmu.PermProgram
}

// ReadWord is a 16 bit bus read at byte address addr in the given space
func (b *Altos8600) ReadWord(space Space, addr uint32, mask uint16) uint16 {
	offset := addr >> 1
	if space == DMA {
		return b.MMU.DMARead(offset, mask)
	}
	return b.MMU.Read(offset, mask, space.permbit())
}

// WriteWord is a 16 bit bus write at byte address addr in the given space
func (b *Altos8600) WriteWord(space Space, addr uint32, data, mask uint16) {
	offset := addr >> 1
	if space == DMA {
		b.MMU.DMAWrite(offset, data, mask)
		return
	}
	b.MMU.Write(offset, data, mask, space.permbit())
}

// ReadByte returns the byte at addr as seen by the supervisor, no faults
func (b *Altos8600) ReadByte(addr uint32) uint8 {
	w := b.MMU.Peek(addr >> 1)
	if addr&1 != 0 {
		return uint8(w >> 8)
	}
	return uint8(w)
}

// WriteByte stores a byte at addr through the page table, no faults
func (b *Altos8600) WriteByte(addr uint32, data uint8) {
	shift := (addr & 1) * 8
	b.MMU.Poke(addr>>1, uint16(data)<<shift, 0xff<<shift)
}

// SetIF is the 8086 interrupt flag output
func (b *Altos8600) SetIF(state bool) {
	if b.user {
		b.seterr(0, 0, mmu.FaultIF)
		return
	}
	b.cpuif = state
	if state && b.mode.UserOnIF() {
		b.user = true
	}
}

// Acknowledge is the 8086 INTA cycle, it returns the vector
func (b *Altos8600) Acknowledge() uint8 {
	b.supervisor()
	return b.PIC1.Acknowledge()
}

func (b *Altos8600) slaveAck(ir int) uint8 {
	switch ir {
	case interrupts.IRPIC2:
		return b.PIC2.Acknowledge()
	case interrupts.IRPIC3:
		return b.PIC3.Acknowledge()
	}
	return 0
}

// SINTR1 is the 8089 channel 1 interrupt, used by the disk channel program
func (b *Altos8600) SINTR1(state bool) {
	if state {
		b.HDC.Terminate()
	}
	b.PIC2.IR(interrupts.IRSintr1, state)
}

// SINTR2 is the 8089 channel 2 interrupt
func (b *Altos8600) SINTR2(state bool) {
	b.PIC2.IR(interrupts.IRSintr2, state)
}

// FDCIntrq is the floppy controller interrupt output
func (b *Altos8600) FDCIntrq(state bool) {
	b.PIC2.IR(interrupts.IRFloppy, state)
}

// FDCDrq reaches the 8089 only when the DMA multiplexer selects the FDC
func (b *Altos8600) FDCDrq(state bool) {
	if b.dmamplex == 0 {
		b.cfg.DRQ2.Set(state)
	}
}

// PITOut2 is the 8253 channel 2 output, the system tick
func (b *Altos8600) PITOut2(state bool) {
	b.PIC1.IR(interrupts.IRTimer, state)
}

// ICSIrq1 and ICSIrq2 are the interrupt outputs of the ICS board
func (b *Altos8600) ICSIrq1(state bool) {
	b.PIC1.IR(interrupts.IRICS1, state)
}

func (b *Altos8600) ICSIrq2(state bool) {
	b.PIC1.IR(interrupts.IRICS2, state)
}

// Dump formats the board state for the monitor
func (b *Altos8600) Dump() string {
	var s strings.Builder
	fmt.Fprintf(&s, "mode %s user %v if %v\n", b.mode, b.user, b.cpuif)
	fmt.Fprintf(&s, "fault %04x addr %04x %04x nmi inhibit %v pending %v\n",
		b.mmuerr, b.eaddr[0], b.eaddr[1], b.nmiinh, b.nmistat)
	fmt.Fprintf(&s, "romport %02x dma mux %d\n", b.romport, b.dmamplex)
	s.WriteString(b.HDC.Dump() + "\n")
	for _, p := range []*interrupts.PIC{b.PIC1, b.PIC2, b.PIC3} {
		s.WriteString(p.Dump() + "\n")
	}
	return s.String()
}
