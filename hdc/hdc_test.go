package hdc

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"altos/disk"
	"altos/interrupts"
	"altos/logger"
)

// memImage keeps the drive in memory and counts accesses
type memImage struct {
	geom          disk.Geometry
	data          []byte
	reads, writes int
}

func newMemImage(g disk.Geometry) *memImage {
	return &memImage{geom: g, data: make([]byte, g.Size())}
}

func (m *memImage) Geometry() disk.Geometry { return m.geom }

func (m *memImage) ReadSector(lba uint32, buf []byte) error {
	m.reads++
	copy(buf, m.data[int(lba)*disk.SectorSize:])
	return nil
}

func (m *memImage) WriteSector(lba uint32, buf []byte) error {
	m.writes++
	copy(m.data[int(lba)*disk.SectorSize:], buf[:disk.SectorSize])
	return nil
}

// badImage fails every sector access
type badImage struct {
	*memImage
}

var errMedia = errors.New("media error")

func (b badImage) ReadSector(uint32, []byte) error  { return errMedia }
func (b badImage) WriteSector(uint32, []byte) error { return errMedia }

var geom = disk.Geometry{Cylinders: 10, Heads: 4, Sectors: 17}

type rig struct {
	c        *Controller
	img      *memImage
	drq, irq *interrupts.Latch
}

func newRig() *rig {
	r := &rig{img: newMemImage(geom), drq: &interrupts.Latch{}, irq: &interrupts.Latch{}}
	r.c = New(r.drq, r.irq, logger.Discard())
	r.c.Debug = true
	r.c.Attach(r.img)
	return r
}

// position selects drive 1, the head, seeks to cyl and loads the sector register
func (r *rig) position(cyl, head, sect int) {
	r.c.Write(RegHead, uint8(head<<4|1))
	r.c.Write(RegCylinder, uint8(cyl))
	r.c.Write(RegCylinder, uint8(cyl>>8))
	r.c.Write(RegCommand, CmdSeek)
	r.c.Read(RegCommand)
	r.c.Write(RegData, uint8(sect))
	r.c.Write(RegData, uint8(sect>>8))
}

func lba(cyl, head, sect int) int {
	return (cyl*geom.Heads+head)*geom.Sectors + sect
}

func TestController_NotReady(t *testing.T) {
	r := newRig()
	r.c.Write(RegHead, 0x02)
	r.c.Write(RegCommand, CmdSeek)
	if r.irq.State() {
		t.Error("command on a deselected drive raised the interrupt")
	}
	if st := r.c.Read(RegCommand); st != 0 {
		t.Errorf("status = %02x, want 0", st)
	}
}

func TestController_SeekRestore(t *testing.T) {
	r := newRig()
	r.c.Write(RegHead, 0x01)
	if st := r.c.Read(RegCommand); st != StatusReady {
		t.Fatalf("status after select = %02x, want %02x", st, StatusReady)
	}

	r.c.Write(RegCylinder, 0x34)
	r.c.Write(RegCylinder, 0x01)
	r.c.Write(RegCommand, CmdSeek)
	if !r.irq.State() {
		t.Error("seek did not interrupt")
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusDone {
		t.Errorf("status = %02x, want 82", st)
	}
	if r.irq.State() {
		t.Error("status read did not clear the interrupt")
	}
	if got := r.c.State().CurrentCylinder; got != 0x134 {
		t.Errorf("current cylinder = %x, want 134", got)
	}

	r.c.Write(RegCommand, CmdRestore)
	if got := r.c.State().CurrentCylinder; got != 0 {
		t.Errorf("current cylinder after restore = %d", got)
	}
}

func TestController_Read(t *testing.T) {
	r := newRig()
	base := lba(3, 2, 5) * disk.SectorSize
	for i := 0; i < disk.SectorSize; i++ {
		r.img.data[base+i] = byte(i * 7)
	}
	r.position(3, 2, 5)

	r.c.Write(RegCommand, CmdRead)
	if !r.drq.State() {
		t.Fatal("read did not raise DRQ")
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusBusy {
		t.Fatalf("status = %02x, want 81", st)
	}

	for i := 0; i < disk.SectorSize; i++ {
		if i == disk.SectorSize-1 && !r.drq.State() {
			t.Fatal("DRQ dropped before the last byte")
		}
		if got := r.c.Read(RegData); got != byte(i*7) {
			t.Fatalf("byte %d = %02x, want %02x", i, got, byte(i*7))
		}
	}
	if r.drq.State() || !r.irq.State() {
		t.Errorf("after transfer drq %v irq %v", r.drq.State(), r.irq.State())
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusDone {
		t.Errorf("status = %02x, want 82", st)
	}
	// not busy any more: data register reads 0
	if got := r.c.Read(RegData); got != 0 {
		t.Errorf("data after transfer = %02x", got)
	}
	if r.img.reads != 1 {
		t.Errorf("image reads = %d, want 1", r.img.reads)
	}
}

func TestController_ReadID(t *testing.T) {
	r := newRig()
	r.img = newMemImage(disk.Geometry{Cylinders: 0x200, Heads: 4, Sectors: 17})
	r.c.Attach(r.img)
	r.img.data[((0x102*4+3)*17+9)*disk.SectorSize] = 0x5a

	r.position(0x102, 3, 9)
	r.c.Write(RegCommand, CmdReadID)

	want := []byte{0x02, 0x31, 0x09, 0x5a}
	for i, w := range want {
		if got := r.c.Read(RegData); got != w {
			t.Errorf("byte %d = %02x, want %02x", i, got, w)
		}
	}
}

func TestController_Write(t *testing.T) {
	r := newRig()
	r.position(1, 0, 16)
	r.c.Write(RegCommand, CmdWrite)
	r.c.Read(RegCommand)

	for i := 0; i < disk.SectorSize; i++ {
		r.c.Write(RegData, byte(0xff-i))
	}
	if r.img.writes != 1 {
		t.Fatalf("image writes = %d, want 1", r.img.writes)
	}
	base := lba(1, 0, 16) * disk.SectorSize
	if r.img.data[base] != 0xff || r.img.data[base+disk.SectorSize-1] != 0x00 {
		t.Error("sector contents not written")
	}
	if r.drq.State() || !r.irq.State() {
		t.Errorf("after transfer drq %v irq %v", r.drq.State(), r.irq.State())
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusDone {
		t.Errorf("status = %02x, want 82", st)
	}
}

func TestController_InvalidAddress(t *testing.T) {
	tests := []struct {
		name         string
		seekCyl, cyl int
		head, sect   int
	}{
		{"cylinder not sought", 2, 3, 0, 0},
		{"cylinder beyond drive", 10, 10, 0, 0},
		{"head beyond drive", 0, 0, 4, 0},
		{"sector beyond track", 0, 0, 0, 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig()
			r.position(tt.seekCyl, tt.head, tt.sect)
			if tt.cyl != tt.seekCyl {
				r.c.Write(RegCylinder, uint8(tt.cyl))
				r.c.Write(RegCylinder, 0)
			}
			r.c.Write(RegCommand, CmdRead)
			if r.drq.State() {
				t.Error("DRQ raised for an invalid address")
			}
			if !r.irq.State() {
				t.Error("error did not interrupt")
			}
			if st := r.c.Read(RegCommand); st != StatusReady|StatusError|StatusDone {
				t.Errorf("status = %02x, want 8a", st)
			}
			if r.img.reads+r.img.writes != 0 {
				t.Error("image touched on an invalid address")
			}
		})
	}
}

func TestController_NoDrive(t *testing.T) {
	r := newRig()
	r.c.Attach(nil)
	r.c.Write(RegHead, 0x01)
	r.c.Write(RegCommand, CmdWrite)
	if st := r.c.Read(RegCommand); st&StatusError == 0 {
		t.Errorf("status = %02x, want error", st)
	}
}

func TestController_Format(t *testing.T) {
	r := newRig()
	r.c.Write(RegHead, 0x01)
	r.c.Write(RegCommand, CmdFormat)
	r.c.Read(RegCommand)
	for i := 0; i < formatBytes; i++ {
		if !r.drq.State() {
			t.Fatalf("DRQ dropped after %d bytes", i)
		}
		r.c.Write(RegData, 0)
	}
	if r.drq.State() {
		t.Error("DRQ still up after the format bytes")
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusDone {
		t.Errorf("status = %02x, want 82", st)
	}
}

func TestController_Terminate(t *testing.T) {
	r := newRig()
	r.position(0, 0, 0)
	r.c.Write(RegCommand, CmdRead)
	r.c.Read(RegCommand)
	r.c.Terminate()
	if r.drq.State() || !r.irq.State() {
		t.Errorf("after terminate drq %v irq %v", r.drq.State(), r.irq.State())
	}
	if st := r.c.Read(RegCommand); st != StatusReady|StatusDone {
		t.Errorf("status = %02x, want 82", st)
	}
}

func TestController_Reset(t *testing.T) {
	r := newRig()
	r.c.Write(RegHead, 0x01)
	r.c.Write(RegCylinder, 5)
	r.c.Reset()
	if r.c.State().Status != 0 {
		t.Error("Reset() left status")
	}
	// the latch starts over at the low byte
	r.c.Write(RegCylinder, 7)
	if r.c.State().Cylinder != 7 {
		t.Errorf("cylinder = %d, want 7", r.c.State().Cylinder)
	}
	if r.c.Dump() == "" {
		t.Error("empty dump")
	}
}

func TestController_ImageError(t *testing.T) {
	tests := []struct {
		name     string
		cmd      uint8
		transfer func(c *Controller)
	}{
		{"read", CmdRead, func(c *Controller) { c.Read(RegData) }},
		{"write", CmdWrite, func(c *Controller) {
			for i := 0; i < disk.SectorSize; i++ {
				c.Write(RegData, byte(i))
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := newRig()
			r.c = New(r.drq, r.irq, log.New(&out, "", 0))
			r.c.Attach(badImage{newMemImage(geom)})
			r.position(2, 1, 3)
			r.c.Write(RegCommand, tt.cmd)
			r.c.Read(RegCommand)
			if !r.drq.State() {
				t.Fatal("transfer did not start")
			}

			tt.transfer(r.c)
			if r.drq.State() || !r.irq.State() {
				t.Errorf("after error drq %v irq %v", r.drq.State(), r.irq.State())
			}
			if st := r.c.Read(RegCommand); st != StatusReady|StatusError|StatusDone {
				t.Errorf("status = %02x, want 8a", st)
			}
			if !strings.Contains(out.String(), "media error") {
				t.Errorf("error not logged: %q", out.String())
			}
		})
	}
}

func TestController_DetachDuringTransfer(t *testing.T) {
	tests := []struct {
		name   string
		cmd    uint8
		access func(c *Controller)
	}{
		{"read", CmdRead, func(c *Controller) { c.Read(RegData) }},
		{"write", CmdWrite, func(c *Controller) { c.Write(RegData, 0x55) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig()
			r.position(0, 0, 1)
			r.c.Write(RegCommand, tt.cmd)
			r.c.Read(RegCommand)

			r.c.Attach(nil)
			if r.c.Image() != nil {
				t.Fatal("drive still attached")
			}
			if r.drq.State() || !r.irq.State() {
				t.Errorf("after detach drq %v irq %v", r.drq.State(), r.irq.State())
			}
			if st := r.c.Read(RegCommand); st != StatusReady|StatusError|StatusDone {
				t.Errorf("status = %02x, want 8a", st)
			}
			tt.access(r.c)
			if r.img.reads+r.img.writes != 0 {
				t.Error("detached image accessed")
			}
		})
	}
}
