package disk

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// SectorSize is fixed by the controller
const SectorSize = 512

// ErrGeometry is returned for images that don't match their geometry,
// and for sector numbers outside of it.
var ErrGeometry = errors.New("disk: bad geometry")

// Geometry of a hard disk: cylinders, heads, sectors per track
type Geometry struct {
	Cylinders int
	Heads     int
	Sectors   int
}

// Default is the 20MB drive the ACS8600 shipped with
var Default = Geometry{Cylinders: 512, Heads: 5, Sectors: 17}

// ParseGeometry reads "C,H,S"
func ParseGeometry(s string) (Geometry, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Geometry{}, fmt.Errorf("%w: %q is not C,H,S", ErrGeometry, s)
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return Geometry{}, fmt.Errorf("%w: %q is not C,H,S", ErrGeometry, s)
		}
		v[i] = n
	}
	return Geometry{Cylinders: v[0], Heads: v[1], Sectors: v[2]}, nil
}

// Blocks returns the number of sectors on the drive
func (g Geometry) Blocks() int {
	return g.Cylinders * g.Heads * g.Sectors
}

// Size returns the image size in bytes
func (g Geometry) Size() int64 {
	return int64(g.Blocks()) * SectorSize
}

// Valid reports whether the geometry describes a drive at all
func (g Geometry) Valid() bool {
	return g.Cylinders > 0 && g.Heads > 0 && g.Sectors > 0
}

func (g Geometry) String() string {
	return fmt.Sprintf("%d,%d,%d", g.Cylinders, g.Heads, g.Sectors)
}

// Image is a raw sector dump backed by a file
type Image struct {
	path string
	geom Geometry
	f    *os.File
}

// Attach opens an existing image. The file must be at least as large as
// the geometry says.
func Attach(path string, geom Geometry) (*Image, error) {
	if !geom.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrGeometry, geom)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if fi.Size() < geom.Size() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, %v needs %d", ErrGeometry, path, fi.Size(), geom, geom.Size())
	}
	return &Image{path: path, geom: geom, f: f}, nil
}

// Create makes a zero filled image of the given geometry
func Create(path string, geom Geometry) (*Image, error) {
	if !geom.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrGeometry, geom)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(geom.Size()); err != nil {
		f.Close()
		return nil, err
	}
	return &Image{path: path, geom: geom, f: f}, nil
}

// Geometry of the attached image
func (im *Image) Geometry() Geometry {
	return im.geom
}

// Path of the backing file
func (im *Image) Path() string {
	return im.path
}

func (im *Image) check(lba uint32, buf []byte) error {
	if int(lba) >= im.geom.Blocks() {
		return fmt.Errorf("%w: lba %d beyond %d blocks", ErrGeometry, lba, im.geom.Blocks())
	}
	if len(buf) < SectorSize {
		return fmt.Errorf("disk: sector buffer is %d bytes", len(buf))
	}
	return nil
}

// ReadSector fills buf with sector lba
func (im *Image) ReadSector(lba uint32, buf []byte) error {
	if err := im.check(lba, buf); err != nil {
		return err
	}
	_, err := im.f.ReadAt(buf[:SectorSize], int64(lba)*SectorSize)
	return err
}

// WriteSector stores buf as sector lba
func (im *Image) WriteSector(lba uint32, buf []byte) error {
	if err := im.check(lba, buf); err != nil {
		return err
	}
	_, err := im.f.WriteAt(buf[:SectorSize], int64(lba)*SectorSize)
	return err
}

// Close flushes and closes the backing file
func (im *Image) Close() error {
	if err := im.f.Sync(); err != nil {
		im.f.Close()
		return err
	}
	return im.f.Close()
}
