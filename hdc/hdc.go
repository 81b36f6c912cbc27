package hdc

import (
	"fmt"
	"log"

	"altos/disk"
	"altos/interrupts"
)

// status register bits
const (
	StatusBusy  = 0x01
	StatusDone  = 0x02
	StatusError = 0x08
	StatusReady = 0x80
)

// commands
const (
	CmdReadID  = 0x01 // read with the three byte ID field in front
	CmdWrite   = 0x02
	CmdFormat  = 0x04
	CmdRead    = 0x09
	CmdSeek    = 0x10
	CmdRestore = 0x20
)

// register offsets, one per word on the low lane
const (
	RegHead     = 0
	RegData     = 1 // data while busy, sector register otherwise
	RegCylinder = 2
	RegCommand  = 3 // command on write, status on read
)

const formatBytes = 4

// Image is the drive behind the controller
type Image interface {
	Geometry() disk.Geometry
	ReadSector(lba uint32, buf []byte) error
	WriteSector(lba uint32, buf []byte) error
}

// Controller is the ACS8600 hard disk controller. Sector data moves one
// byte per access through the data register, paced by DRQ on the 8089.
type Controller struct {
	head, sect, cyl, curcyl uint16
	lba                     uint32
	secoff                  int
	cmd, stat               uint8
	cylhi, sechi            bool
	sector                  [disk.SectorSize]byte

	img Image

	drq, irq interrupts.Line

	log *log.Logger
	// Debug logs every command
	Debug bool
}

// State is a snapshot of the register file
type State struct {
	Head, Sector, Cylinder, CurrentCylinder uint16
	Command, Status                         uint8
	LBA                                     uint32
	Offset                                  int
	Attached                                bool
}

// New returns a controller with no drive attached
func New(drq, irq interrupts.Line, logger *log.Logger) *Controller {
	if drq == nil {
		drq = interrupts.Nop
	}
	if irq == nil {
		irq = interrupts.Nop
	}
	return &Controller{drq: drq, irq: irq, log: logger}
}

// Attach connects a drive. nil detaches; a transfer in progress then
// ends with the error bit set.
func (c *Controller) Attach(img Image) {
	c.img = img
	if img == nil && c.busy() {
		c.logf("drive removed during command %02x", c.cmd)
		c.fail()
	}
}

// Image returns the attached drive
func (c *Controller) Image() Image {
	return c.img
}

// Reset clears status and the two step register latches
func (c *Controller) Reset() {
	c.cylhi = false
	c.sechi = false
	c.stat = 0
}

func (c *Controller) logf(format string, v ...interface{}) {
	if c.log != nil {
		c.log.Printf("HDC: "+format, v...)
	}
}

func (c *Controller) debugf(format string, v ...interface{}) {
	if c.Debug && c.log != nil {
		c.log.Printf("HDC: "+format, v...)
	}
}

// complete ends a transfer
func (c *Controller) complete() {
	c.drq.Set(false)
	c.irq.Set(true)
	c.stat &^= StatusBusy
	c.stat |= StatusDone
}

// fail ends a transfer with the error bit set
func (c *Controller) fail() {
	c.stat |= StatusError
	c.complete()
}

// findSector validates the CHS registers against the drive and computes
// the LBA. The heads must already be on the requested cylinder.
func (c *Controller) findSector() bool {
	if c.img == nil {
		return false
	}
	g := c.img.Geometry()
	head := int(c.head >> 4)

	switch {
	case !g.Valid():
		return false
	case c.cyl != c.curcyl:
		return false
	case int(c.curcyl) >= g.Cylinders:
		return false
	case head >= g.Heads:
		return false
	case int(c.sect) >= g.Sectors:
		return false
	}
	c.lba = uint32((int(c.cyl)*g.Heads+head)*g.Sectors + int(c.sect))
	return true
}

func (c *Controller) readSector() uint8 {
	secoff := c.secoff
	c.secoff++
	if c.cmd == CmdReadID {
		switch secoff {
		case 0:
			return uint8(c.curcyl)
		case 1:
			return uint8(c.head&0xf0) | uint8(c.curcyl>>8)
		case 2:
			return uint8(c.sect)
		}
		secoff -= 3
	}
	if secoff == 0 {
		if c.img == nil {
			c.fail()
			return 0
		}
		if err := c.img.ReadSector(c.lba, c.sector[:]); err != nil {
			c.logf("read lba %d: %v", c.lba, err)
			c.fail()
			return 0
		}
	}
	if secoff >= disk.SectorSize-1 {
		c.complete()
	}
	if secoff >= disk.SectorSize {
		return 0
	}
	return c.sector[secoff]
}

func (c *Controller) writeSector(data uint8) {
	if c.secoff >= disk.SectorSize {
		return
	}
	if c.img == nil {
		c.fail()
		return
	}
	c.sector[c.secoff] = data
	c.secoff++
	if c.secoff == disk.SectorSize {
		if err := c.img.WriteSector(c.lba, c.sector[:]); err != nil {
			c.logf("write lba %d: %v", c.lba, err)
			c.stat |= StatusError
		}
		c.complete()
	}
}

func (c *Controller) busy() bool {
	return c.stat&StatusBusy != 0
}

// Read returns the register at offset. Reading the status register
// acknowledges the interrupt.
func (c *Controller) Read(offset int) uint8 {
	switch offset & 3 {
	case RegData:
		if c.busy() && c.cmd&1 != 0 {
			return c.readSector()
		}
	case RegCommand:
		c.irq.Set(false)
		return c.stat
	}
	return 0
}

// Write stores a register at offset. A command write starts the operation.
func (c *Controller) Write(offset int, data uint8) {
	switch offset & 3 {
	case RegHead:
		c.head = uint16(data)
		if c.head&3 == 1 {
			c.stat |= StatusReady
		} else {
			c.stat &^= StatusReady
		}
	case RegData:
		if c.busy() {
			switch c.cmd {
			case CmdWrite:
				c.writeSector(data)
			case CmdFormat:
				c.secoff++
				if c.secoff == formatBytes {
					c.drq.Set(false)
					c.stat &^= StatusBusy
					c.stat |= StatusDone
				}
			}
			return
		}
		if c.sechi {
			c.sechi = false
			c.sect |= uint16(data&7) << 8
		} else {
			c.sechi = true
			c.sect = uint16(data)
		}
	case RegCylinder:
		if c.cylhi {
			c.cylhi = false
			c.cyl |= uint16(data&7) << 8
		} else {
			c.cylhi = true
			c.cyl = uint16(data)
		}
	case RegCommand:
		c.command(data)
	}
}

func (c *Controller) command(data uint8) {
	c.cmd = data
	c.cylhi = false
	c.sechi = false
	c.drq.Set(false)
	if c.stat&StatusReady == 0 {
		c.debugf("command %02x ignored, drive not ready", data)
		return
	}
	c.stat &= StatusReady
	c.debugf("command %02x cyl %d head %d sect %d", data, c.cyl, c.head>>4, c.sect)

	switch c.cmd {
	case CmdSeek:
		c.curcyl = c.cyl
		c.stat |= StatusDone
	case CmdRestore:
		c.curcyl = 0
		c.stat |= StatusDone
	case CmdReadID, CmdWrite, CmdRead:
		if !c.findSector() {
			c.stat |= StatusError | StatusDone
			break
		}
		c.startTransfer()
	case CmdFormat:
		c.startTransfer()
	}
	c.irq.Set(true)
}

func (c *Controller) startTransfer() {
	c.secoff = 0
	c.stat |= StatusBusy
	c.drq.Set(true)
}

// Terminate is the I/O processor telling the controller the channel
// program has finished, whatever state the transfer is in.
func (c *Controller) Terminate() {
	c.complete()
}

// State returns a snapshot of the registers
func (c *Controller) State() State {
	return State{
		Head:            c.head,
		Sector:          c.sect,
		Cylinder:        c.cyl,
		CurrentCylinder: c.curcyl,
		Command:         c.cmd,
		Status:          c.stat,
		LBA:             c.lba,
		Offset:          c.secoff,
		Attached:        c.img != nil,
	}
}

// Dump formats the register file for the monitor
func (c *Controller) Dump() string {
	s := c.State()
	return fmt.Sprintf("HDC: head %02x cyl %d (at %d) sect %d cmd %02x stat %02x lba %d off %d attached %v",
		s.Head, s.Cylinder, s.CurrentCylinder, s.Sector, s.Command, s.Status, s.LBA, s.Offset, s.Attached)
}
