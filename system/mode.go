package system

import "fmt"

// mode register bits. Values here are masks.
const (
	// ModeUser - switch to user mode when the CPU next sets IF
	ModeUser = 0x01
	// ModeBoot - boot ROM overlays the top 8K of the address space
	ModeBoot = 0x02
	// ModeKeep - the only bit that survives a reset
	ModeKeep = 0x10
)

// Mode keeps the ACS8600 mode register, written by the CPU at port 0x30
type Mode uint16

// Get returns the register value
func (m Mode) Get() uint16 {
	return uint16(m)
}

// Set stores a new value
func (m *Mode) Set(v uint16) {
	*m = Mode(v)
}

// Boot is true while the boot ROM is mapped
func (m Mode) Boot() bool {
	return m&ModeBoot != 0
}

// UserOnIF is true when the next IF set drops the CPU into user mode
func (m Mode) UserOnIF() bool {
	return m&ModeUser != 0
}

// Supervisor disarms the switch to user mode
func (m *Mode) Supervisor() {
	*m &^= ModeUser
}

// reset keeps bit 4 and maps the boot ROM
func (m *Mode) reset() {
	*m = *m&ModeKeep | ModeBoot
}

func (m Mode) String() string {
	s := fmt.Sprintf("%04x", uint16(m))
	if m.Boot() {
		s += " boot"
	}
	if m.UserOnIF() {
		s += " user-on-if"
	}
	return s
}
