package system

import (
	"altos/interrupts"
	"altos/mmu"
)

// byte lanes of the 16 bit bus
const (
	laneLow  = 0x00ff
	laneHigh = 0xff00
	laneBoth = 0xffff
)

// 8089 I/O space map, byte ports
const (
	portFault     = 0x00
	portClear     = 0x08
	portErrLow    = 0x10
	portErrHigh   = 0x18
	portHDC       = 0x20
	portMode      = 0x30
	portAttention = 0x38
	portPPIFDC    = 0x40
	portSIOPIT    = 0x48
	portROM       = 0x50
	portPIC1      = 0x58
	portPIC2      = 0x60
	portPIC3      = 0x68
	portNone      = 0x70
	portICS       = 0x78
	portICSEnd    = 0x7a
	portFlags     = 0x200
	portPages     = 0x400
	portPagesEnd  = 0x600

	windowSize = 8
)

type readFunc func(offset int) uint8
type writeFunc func(offset int, data uint8)

func in(port, base uint16) bool {
	return port >= base && port < base+windowSize
}

// ReadIO is a 16 bit read in the 8089 I/O space. Any lane without a
// device behind it reads 0 and raises an I/O fault.
func (b *Altos8600) ReadIO(port, mask uint16) uint16 {
	port &^= 1
	switch {
	case in(port, portFault):
		return b.mmuerr
	case in(port, portErrLow):
		return b.eaddr[0]
	case in(port, portErrHigh):
		return b.eaddr[1]
	case in(port, portHDC):
		return b.readLanes(port, portHDC, mask, b.HDC.Read, nil)
	case in(port, portPPIFDC):
		return b.readLanes(port, portPPIFDC, mask, readOf(b.cfg.PPI), readOf(b.cfg.FDC))
	case in(port, portSIOPIT):
		return b.readLanes(port, portSIOPIT, mask, b.SIO.ReadCDBA, readOf(b.cfg.PIT))
	case in(port, portROM):
		return b.readBytes(port, portROM, mask, b.romportRead)
	case in(port, portPIC1):
		return b.readLanes(port, portPIC1, mask, b.PIC1.Read, nil)
	case in(port, portPIC2):
		return b.readLanes(port, portPIC2, mask, b.PIC2.Read, nil)
	case in(port, portPIC3):
		return b.readLanes(port, portPIC3, mask, b.PIC3.Read, nil)
	case in(port, portNone):
		return 0
	case port >= portFlags && port < portPages:
		return b.MMU.Flags(int(port >> 1))
	case port >= portPages && port < portPagesEnd:
		return uint16(b.MMU.Page(int(port >> 1)))
	}
	b.ioFault(port, mask)
	return 0
}

// WriteIO is a 16 bit write in the 8089 I/O space
func (b *Altos8600) WriteIO(port, data, mask uint16) {
	port &^= 1
	switch {
	case in(port, portClear):
		b.clearFault()
	case in(port, portHDC):
		b.writeLanes(port, portHDC, data, mask, b.HDC.Write, nil)
	case in(port, portMode):
		b.setMode(data)
	case in(port, portAttention):
		b.writeBytes(port, portAttention, data, mask, b.channelAttention)
	case in(port, portPPIFDC):
		b.writeLanes(port, portPPIFDC, data, mask, writeOf(b.cfg.PPI), writeOf(b.cfg.FDC))
	case in(port, portSIOPIT):
		b.writeLanes(port, portSIOPIT, data, mask, b.SIO.WriteCDBA, writeOf(b.cfg.PIT))
	case in(port, portROM):
		b.writeBytes(port, portROM, data, mask, b.romportWrite)
	case in(port, portPIC1):
		b.writeLanes(port, portPIC1, data, mask, b.PIC1.Write, b.clearSystem)
	case in(port, portPIC2):
		b.writeLanes(port, portPIC2, data, mask, b.PIC2.Write, nil)
	case in(port, portPIC3):
		b.writeLanes(port, portPIC3, data, mask, b.PIC3.Write, nil)
	case in(port, portNone):
	case port >= portICS && port < portICSEnd:
		b.writeBytes(port, portICS, data, mask, b.icsAttention)
	case port >= portFlags && port < portPages:
		b.MMU.SetFlags(int(port>>1), data, mask)
	case port >= portPages && port < portPagesEnd:
		b.MMU.SetPage(int(port>>1), data, mask)
	default:
		b.ioFault(port, mask)
	}
}

// ReadIOByte reads one byte lane, odd ports are the high lane
func (b *Altos8600) ReadIOByte(port uint16) uint8 {
	shift := (port & 1) * 8
	return uint8(b.ReadIO(port, laneLow<<shift) >> shift)
}

// WriteIOByte writes one byte lane
func (b *Altos8600) WriteIOByte(port uint16, data uint8) {
	shift := (port & 1) * 8
	b.WriteIO(port, uint16(data)<<shift, laneLow<<shift)
}

// InByte is ReadIOByte, for the monitor
func (b *Altos8600) InByte(port uint16) uint8 {
	return b.ReadIOByte(port)
}

// OutByte is WriteIOByte, for the monitor
func (b *Altos8600) OutByte(port uint16, data uint8) {
	b.WriteIOByte(port, data)
}

// CPURead is an 8086 I/O read. User mode code never reaches the bus:
// the access raises the system interrupt instead.
func (b *Altos8600) CPURead(port, mask uint16) uint16 {
	if b.user {
		b.PIC1.IR(interrupts.IRSystem, true)
		return 0
	}
	return b.ReadIO(port, mask)
}

// CPUWrite is an 8086 I/O write, trapped in user mode like CPURead
func (b *Altos8600) CPUWrite(port, data, mask uint16) {
	if b.user {
		b.PIC1.IR(interrupts.IRSystem, true)
		return
	}
	b.WriteIO(port, data, mask)
}

func (b *Altos8600) ioFault(port, mask uint16) {
	b.seterr(uint32(port>>1), mask, mmu.FaultIO)
}

func readOf(d Device) readFunc {
	if d == nil {
		return nil
	}
	return d.Read
}

func writeOf(d Device) writeFunc {
	if d == nil {
		return nil
	}
	return d.Write
}

// readLanes serves a window where each lane is a separate 8 bit device
// addressed by word: register n sits at base + 2n.
func (b *Altos8600) readLanes(port, base, mask uint16, lo, hi readFunc) uint16 {
	offset := int(port-base) >> 1
	var v uint16
	fault := false
	if mask&laneLow != 0 {
		if lo != nil {
			v |= uint16(lo(offset))
		} else {
			fault = true
		}
	}
	if mask&laneHigh != 0 {
		if hi != nil {
			v |= uint16(hi(offset)) << 8
		} else {
			fault = true
		}
	}
	if fault {
		b.ioFault(port, mask)
	}
	return v
}

func (b *Altos8600) writeLanes(port, base, data, mask uint16, lo, hi writeFunc) {
	offset := int(port-base) >> 1
	fault := false
	if mask&laneLow != 0 {
		if lo != nil {
			lo(offset, uint8(data))
		} else {
			fault = true
		}
	}
	if mask&laneHigh != 0 {
		if hi != nil {
			hi(offset, uint8(data>>8))
		} else {
			fault = true
		}
	}
	if fault {
		b.ioFault(port, mask)
	}
}

// readBytes serves a window with one 8 bit register per byte port
func (b *Altos8600) readBytes(port, base, mask uint16, r readFunc) uint16 {
	offset := int(port - base)
	var v uint16
	if mask&laneLow != 0 {
		v |= uint16(r(offset))
	}
	if mask&laneHigh != 0 {
		v |= uint16(r(offset+1)) << 8
	}
	return v
}

func (b *Altos8600) writeBytes(port, base, data, mask uint16, w writeFunc) {
	offset := int(port - base)
	if mask&laneLow != 0 {
		w(offset, uint8(data))
	}
	if mask&laneHigh != 0 {
		w(offset+1, uint8(data>>8))
	}
}

func (b *Altos8600) setMode(data uint16) {
	b.mode.Set(data)
	if b.cpuif && b.mode.UserOnIF() {
		b.user = true
	}
}

func (b *Altos8600) channelAttention(offset int, _ uint8) {
	b.cfg.SEL.Set(offset&1 != 0)
	b.cfg.CA.Set(true)
	b.cfg.CA.Set(false)
}

func (b *Altos8600) icsAttention(offset int, _ uint8) {
	if offset == 0 {
		b.cfg.ICS.Set(true)
		b.cfg.ICS.Set(false)
	}
}

func (b *Altos8600) clearSystem(int, uint8) {
	b.PIC1.IR(interrupts.IRSystem, false)
}

func (b *Altos8600) romportRead(offset int) uint8 {
	if offset&1 != 0 {
		return b.romport[offset>>1]
	}
	return 0
}

// romportWrite drives the floppy select, NMI inhibit and FDC control
// latches behind the boot ROM ports
func (b *Altos8600) romportWrite(offset int, data uint8) {
	switch offset {
	case 3:
		b.romport[1] = data
		drive := -1
		for i := 0; i < 4; i++ {
			if data&(1<<uint(i)) == 0 {
				drive = i
				break
			}
		}
		if b.cfg.FDC != nil {
			b.cfg.FDC.SetFloppy(drive)
		}

		inhibit := data&0x10 != 0
		switch {
		case b.nmistat && b.nmiinh && !inhibit:
			b.supervisor()
			b.cfg.NMI.Set(true)
		case inhibit && b.nmistat:
			b.cfg.NMI.Set(false)
		}
		b.nmiinh = inhibit
	case 5:
		b.romport[2] = data
		if b.cfg.FDC != nil {
			if data&0x08 != 0 {
				b.cfg.FDC.SoftReset()
			}
			b.cfg.FDC.SetDDEN(data&0x04 == 0)
		}
		b.dmamplex = (data >> 4) & 3
	case 7:
		b.romport[3] = data
	}
}
