package system

import (
	"fmt"
	"strconv"
	"strings"
)

// Device is an 8 bit peripheral with a small register window.
// The board passes the register offset inside the window.
type Device interface {
	Read(offset int) uint8
	Write(offset int, data uint8)
}

// FDC is the floppy controller slot of the ACS8600 (an FD1797)
type FDC interface {
	Device
	// SetFloppy selects drive 0-3, or none with -1
	SetFloppy(drive int)
	SoftReset()
	SetDDEN(state bool)
}

// Board is the part of a machine the monitor drives, whatever the CPU
type Board interface {
	Name() string
	Reset()
	Step()
	// ReadByte and WriteByte see memory the way a supervisor CPU does,
	// without raising faults
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, data uint8)
	InByte(port uint16) uint8
	OutByte(port uint16, data uint8)
	Dump() string
}

// Space is one of the address spaces of the ACS8600 bus
type Space int

// the four 8086 bus cycle types, then the 8089
const (
	Program Space = iota
	Stack
	Code
	Extra
	DMA
)

var spaceNames = [...]string{"program", "stack", "code", "extra", "dma"}

func (s Space) String() string {
	if s < 0 || int(s) >= len(spaceNames) {
		return "space(" + strconv.Itoa(int(s)) + ")"
	}
	return spaceNames[s]
}

// ParseSpace accepts a space name or its first letter
func ParseSpace(name string) (Space, error) {
	name = strings.ToLower(name)
	for i, n := range spaceNames {
		if name == n || (len(name) == 1 && name[0] == n[0]) {
			return Space(i), nil
		}
	}
	return 0, fmt.Errorf("unknown address space %q", name)
}

var (
	_ Board = (*Altos8600)(nil)
	_ Board = (*C68ksbc)(nil)
	_ Board = (*MCCPM)(nil)
)
