package rom

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
)

// ErrChecksum means a dump loaded but doesn't match the known good hashes.
// Callers usually log it and carry on.
var ErrChecksum = errors.New("rom: checksum mismatch")

// File is one EPROM dump
type File struct {
	Name   string
	Offset int
	Length int
	CRC    uint32
	SHA1   string
	// Skip interleaves the dump into every other byte of the region,
	// for 16 bit boards built from a pair of 8 bit EPROMs.
	Skip bool
}

// Set is a selectable BIOS: the files that make up one region
type Set struct {
	Name        string
	Description string
	Size        int
	Fill        byte
	Files       []File
}

// Load reads every file of the set from dir into a fresh region.
// A checksum mismatch still returns the data, with an ErrChecksum error.
func Load(dir string, set Set) ([]byte, error) {
	region := make([]byte, set.Size)
	if set.Fill != 0 {
		for i := range region {
			region[i] = set.Fill
		}
	}

	var bad []string
	for _, f := range set.Files {
		data, err := os.ReadFile(filepath.Join(dir, f.Name))
		if err != nil {
			return nil, fmt.Errorf("rom %s: %w", set.Name, err)
		}
		if len(data) != f.Length {
			return nil, fmt.Errorf("rom %s: %s is %d bytes, want %d", set.Name, f.Name, len(data), f.Length)
		}
		if !f.verify(data) {
			bad = append(bad, f.Name)
		}

		step := 1
		if f.Skip {
			step = 2
		}
		if f.Offset+(len(data)-1)*step >= len(region) {
			return nil, fmt.Errorf("rom %s: %s does not fit the region", set.Name, f.Name)
		}
		for i, b := range data {
			region[f.Offset+i*step] = b
		}
	}
	if len(bad) > 0 {
		return region, fmt.Errorf("%w: %v", ErrChecksum, bad)
	}
	return region, nil
}

func (f File) verify(data []byte) bool {
	if f.CRC != 0 && crc32.ChecksumIEEE(data) != f.CRC {
		return false
	}
	if f.SHA1 != "" {
		sum := sha1.Sum(data)
		if hex.EncodeToString(sum[:]) != f.SHA1 {
			return false
		}
	}
	return true
}

// Words converts a little endian region to 16 bit words
func Words(region []byte) []uint16 {
	w := make([]uint16, len(region)/2)
	for i := range w {
		w[i] = binary.LittleEndian.Uint16(region[i*2:])
	}
	return w
}

// Find returns the named set of a machine. An empty name picks the first.
func Find(machine, name string) (Set, error) {
	sets, ok := Sets[machine]
	if !ok {
		return Set{}, fmt.Errorf("rom: unknown machine %q", machine)
	}
	if name == "" {
		return sets[0], nil
	}
	for _, s := range sets {
		if s.Name == name {
			return s, nil
		}
	}
	return Set{}, fmt.Errorf("rom: machine %s has no bios %q", machine, name)
}
