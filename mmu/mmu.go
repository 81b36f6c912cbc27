package mmu

import (
	"fmt"
	"strings"
)

/*
ACS8600 memory management unit.

1MB of logical space is split into 256 pages of 4KB (2K words). Every page
has an 8 bit physical page number and a 16 bit flags word. Offsets handled
here are word offsets, the way the 16 bit bus sees them (byte address >> 1).
*/

// memory layout
const (
	Pages     = 256
	PageWords = 0x800
	RAMWords  = Pages * PageWords

	// BIOSOffset - word offset of the boot ROM overlay (byte address 0xfe000)
	BIOSOffset = 0x7f000
	BIOSWords  = 0x1000

	offsetMask = 0x7ffff

	// first 64 words of a page may be write protected against user mode
	protectedWords = 64
)

// page flag bits
const (
	FlagUserState  = 0x0001 // read back only: CPU in user mode
	FlagBootState  = 0x0002 // read back only: boot ROM mapped
	FlagDirty      = 0x0004
	FlagProtectLow = 0x0008
	FlagDMAWrite   = 0x0040
	FlagUserWrite  = 0x0080
	FlagSysWrite   = 0x0100
	FlagDMARead    = 0x0400
	FlagUserAccess = 0x0800
	FlagExtra      = 0x1000
	FlagStack      = 0x2000
	FlagProgram    = 0x4000
	FlagCode       = 0x8000
	flagsWriteMask = 0x0017
	flagsHighLane  = 0xff00
	flagsLowLane   = 0x00ff
)

// permission bits for the four 8086 bus cycle types
const (
	PermExtra   uint = 12
	PermStack   uint = 13
	PermProgram uint = 14
	PermCode    uint = 15
)

// fault types. The fault register is active low: a fault clears its bit.
const (
	FaultIF         = 0x0001
	FaultProtectLow = 0x0008
	FaultSysWrite   = 0x0010
	FaultDMAWrite   = 0x0040
	FaultUserWrite  = 0x0080
	FaultIO         = 0x0100
	FaultDMARead    = 0x0400
	FaultUserAccess = 0x0800
)

// Mode gives the MMU the CPU state it needs, owned by the board
type Mode interface {
	User() bool
	Boot() bool
}

// FaultHandler is called for every permission violation.
// offset is the word offset, mask the byte lanes of the cycle.
type FaultHandler func(offset uint32, mask uint16, fault uint16)

type entry struct {
	page  uint8
	flags uint16
}

func (e *entry) permitted(permbit uint) bool { return e.flags&(1<<permbit) != 0 }
func (e *entry) userAccess() bool            { return e.flags&FlagUserAccess != 0 }
func (e *entry) userWrite() bool             { return e.flags&FlagUserWrite != 0 }
func (e *entry) sysWrite() bool              { return e.flags&FlagSysWrite != 0 }
func (e *entry) dmaRead() bool               { return e.flags&FlagDMARead != 0 }
func (e *entry) dmaWrite() bool              { return e.flags&FlagDMAWrite != 0 }
func (e *entry) protectLow() bool            { return e.flags&FlagProtectLow != 0 }

// MMU holds the page table and physical memory
type MMU struct {
	// Memory : physical RAM, 1MB
	Memory [RAMWords]uint16

	pages [Pages]entry
	bios  [BIOSWords]uint16

	mode  Mode
	fault FaultHandler
}

// New returns an MMU with a zeroed page table
func New(mode Mode, fault FaultHandler) *MMU {
	m := &MMU{mode: mode, fault: fault}
	if m.fault == nil {
		m.fault = func(uint32, uint16, uint16) {}
	}
	return m
}

// SetBIOS copies the boot ROM words into the overlay
func (m *MMU) SetBIOS(words []uint16) {
	m.bios = [BIOSWords]uint16{}
	copy(m.bios[:], words)
}

// Reset clears the whole page table, dirty bits included.
// Physical memory is left alone.
func (m *MMU) Reset() {
	m.pages = [Pages]entry{}
}

func index(offset uint32) uint32 {
	return (offset & offsetMask) >> 11
}

// physical returns the RAM word index for the logical word offset
func (m *MMU) physical(offset uint32) uint32 {
	e := &m.pages[index(offset)]
	return uint32(e.page)<<11 | offset&(PageWords-1)
}

// Physical is the exported form of the translation, no checks applied
func (m *MMU) Physical(offset uint32) uint32 {
	return m.physical(offset & offsetMask)
}

func (m *MMU) bootOverlay(offset uint32) bool {
	return offset >= BIOSOffset && m.mode.Boot()
}

func combine(old, data, mask uint16) uint16 {
	return old&^mask | data&mask
}

// Translate checks a CPU cycle of type permbit against the page table and
// returns the physical RAM word index. Faults go to the fault handler; ok
// is false when the cycle must not reach memory. A write that gets through
// marks the page dirty. The boot ROM overlay is not handled here.
func (m *MMU) Translate(offset uint32, mask uint16, permbit uint, write bool) (uint32, bool) {
	offset &= offsetMask
	e := &m.pages[index(offset)]
	user := m.mode.User()

	if !write {
		if user && !e.userAccess() {
			m.fault(offset, mask, FaultUserAccess)
		} else if user && !e.permitted(permbit) {
			m.fault(offset, mask, 1<<permbit)
		}
		return m.physical(offset), true
	}

	switch {
	case user && !e.userWrite():
		m.fault(offset, mask, FaultUserWrite)
		return 0, false
	case !user && !e.sysWrite():
		m.fault(offset, mask, FaultSysWrite)
		return 0, false
	case user && !e.permitted(permbit):
		m.fault(offset, mask, 1<<permbit)
	case user && e.protectLow() && offset&(PageWords-1) < protectedWords:
		m.fault(offset, mask, FaultProtectLow)
	}
	e.flags |= FlagDirty
	return m.physical(offset), true
}

// Read translates and reads a word for a CPU cycle of type permbit.
// Faults don't abort the cycle, the data is returned anyway.
func (m *MMU) Read(offset uint32, mask uint16, permbit uint) uint16 {
	offset &= offsetMask
	if m.bootOverlay(offset) {
		return m.bios[offset&(BIOSWords-1)]
	}
	p, _ := m.Translate(offset, mask, permbit, false)
	return m.Memory[p]
}

// Write translates and writes a word for a CPU cycle of type permbit.
// Missing write permission suppresses the write; a missing segment bit or
// a protected low page faults but lets the data through.
func (m *MMU) Write(offset uint32, data, mask uint16, permbit uint) {
	p, ok := m.Translate(offset, mask, permbit, true)
	if !ok {
		return
	}
	m.Memory[p] = combine(m.Memory[p], data, mask)
}

// DMARead reads a word for the I/O processor
func (m *MMU) DMARead(offset uint32, mask uint16) uint16 {
	offset &= offsetMask
	if m.bootOverlay(offset) {
		return m.bios[offset&(BIOSWords-1)]
	}
	if !m.pages[index(offset)].dmaRead() {
		m.fault(offset, mask, FaultDMARead)
	}
	return m.Memory[m.physical(offset)]
}

// DMAWrite writes a word for the I/O processor
func (m *MMU) DMAWrite(offset uint32, data, mask uint16) {
	offset &= offsetMask
	e := &m.pages[index(offset)]
	if !e.dmaWrite() {
		m.fault(offset, mask, FaultDMAWrite)
		return
	}
	p := m.physical(offset)
	m.Memory[p] = combine(m.Memory[p], data, mask)
	e.flags |= FlagDirty
}

// Peek reads what a supervisor read would return, without faults
func (m *MMU) Peek(offset uint32) uint16 {
	offset &= offsetMask
	if m.bootOverlay(offset) {
		return m.bios[offset&(BIOSWords-1)]
	}
	return m.Memory[m.physical(offset)]
}

// Poke writes through the page table with no permission checks.
// The dirty bit is left alone.
func (m *MMU) Poke(offset uint32, data, mask uint16) {
	p := m.physical(offset & offsetMask)
	m.Memory[p] = combine(m.Memory[p], data, mask)
}

// Flags returns the flags register of page i as the CPU reads it
func (m *MMU) Flags(i int) uint16 {
	f := m.pages[i&0xff].flags
	if m.mode.User() {
		f |= FlagUserState
	}
	if m.mode.Boot() {
		f |= FlagBootState
	}
	return f
}

// SetFlags writes the flags register of page i.
// The read back bits and the dirty bit are never stored; a low byte write
// sets the whole high byte and a high byte write is dropped.
func (m *MMU) SetFlags(i int, data, mask uint16) {
	data &^= flagsWriteMask
	if mask == flagsLowLane {
		data |= flagsHighLane
	} else if mask == flagsHighLane {
		return
	}
	m.pages[i&0xff].flags = data
}

// Page returns the physical page number of page i
func (m *MMU) Page(i int) uint8 {
	return m.pages[i&0xff].page
}

// SetPage writes the physical page number. Only the low lane is wired.
func (m *MMU) SetPage(i int, data, mask uint16) {
	if mask&flagsLowLane != 0 {
		m.pages[i&0xff].page = uint8(data)
	}
}

// Dirty reports whether page i was written since its flags were loaded
func (m *MMU) Dirty(i int) bool {
	return m.pages[i&0xff].flags&FlagDirty != 0
}

// DumpPage returns a line describing page i
func (m *MMU) DumpPage(i int) string {
	e := m.pages[i&0xff]
	return fmt.Sprintf("%02x -> %02x flags %04x %s", i&0xff, e.page, e.flags, flagString(e.flags))
}

// Dump lists all pages with non zero flags
func (m *MMU) Dump() string {
	var b strings.Builder
	for i := range m.pages {
		if m.pages[i].flags == 0 && m.pages[i].page == 0 {
			continue
		}
		b.WriteString(m.DumpPage(i))
		b.WriteString("\n")
	}
	return b.String()
}

func flagString(f uint16) string {
	names := []struct {
		bit  uint16
		name string
	}{
		{FlagCode, "C"}, {FlagProgram, "P"}, {FlagStack, "S"}, {FlagExtra, "E"},
		{FlagUserAccess, "U"}, {FlagDMARead, "r"}, {FlagSysWrite, "W"},
		{FlagUserWrite, "w"}, {FlagDMAWrite, "d"}, {FlagProtectLow, "L"},
		{FlagDirty, "*"},
	}
	s := ""
	for _, n := range names {
		if f&n.bit != 0 {
			s += n.name
		} else {
			s += "-"
		}
	}
	return s
}
