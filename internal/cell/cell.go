// Package cell stores a single fixed-width value in a region.
//
// Layout:
//
//	offset  size  field
//	0       3     magic "SCL"
//	3       1     layout version
//	4       4     value length (always 8)
//	8       8     value, little endian
//
// The value is written with one aligned 8-byte store, so a reader never
// observes half of an update.
package cell

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/linguastore/internal/memory"
)

const (
	layoutVersion = 1
	valueOffset   = 8
	valueLen      = 8
)

var magic = [3]byte{'S', 'C', 'L'}

// ErrInvalidLayout is returned when a region holds something other than a cell.
var ErrInvalidLayout = errors.New("cell: invalid layout")

// Uint64 is a persistent uint64 cell.
type Uint64 struct {
	mem   memory.Memory
	value uint64
}

// Init binds a cell to mem. An empty memory is initialized with def; otherwise
// the stored value is recovered.
func Init(mem memory.Memory, def uint64) (*Uint64, error) {
	c := &Uint64{mem: mem}

	fresh, err := unformatted(mem)
	if err != nil {
		return nil, err
	}
	if fresh {
		if mem.Size() == 0 {
			if _, err := mem.Grow(1); err != nil {
				return nil, err
			}
		}
		var hdr [valueOffset + valueLen]byte
		copy(hdr[:3], magic[:])
		hdr[3] = layoutVersion
		binary.LittleEndian.PutUint32(hdr[4:8], valueLen)
		binary.LittleEndian.PutUint64(hdr[valueOffset:], def)
		if _, err := mem.WriteAt(hdr[:], 0); err != nil {
			return nil, err
		}
		c.value = def
		return c, nil
	}

	var hdr [valueOffset + valueLen]byte
	if _, err := mem.ReadAt(hdr[:], 0); err != nil {
		return nil, err
	}
	if [3]byte(hdr[:3]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrInvalidLayout, hdr[:3])
	}
	if hdr[3] != layoutVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidLayout, hdr[3])
	}
	if n := binary.LittleEndian.Uint32(hdr[4:8]); n != valueLen {
		return nil, fmt.Errorf("%w: value length %d", ErrInvalidLayout, n)
	}

	c.value = binary.LittleEndian.Uint64(hdr[valueOffset:])
	return c, nil
}

// Get returns the current value.
func (c *Uint64) Get() uint64 {
	return c.value
}

// Set persists v.
func (c *Uint64) Set(v uint64) error {
	var buf [valueLen]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	if _, err := c.mem.WriteAt(buf[:], valueOffset); err != nil {
		return err
	}
	c.value = v
	return nil
}

// Allocate persists the successor of the current value and returns the
// current value. Consecutive calls yield 0, 1, 2, ... from a fresh cell.
func (c *Uint64) Allocate() (uint64, error) {
	id := c.value
	if err := c.Set(id + 1); err != nil {
		return 0, err
	}
	return id, nil
}

// unformatted reports whether mem is empty or is a single zeroed page left by
// an Init that stopped between growing and writing the header.
func unformatted(mem memory.Memory) (bool, error) {
	switch mem.Size() {
	case 0:
		return true, nil
	case 1:
		var hdr [valueOffset + valueLen]byte
		if _, err := mem.ReadAt(hdr[:], 0); err != nil {
			return false, err
		}
		return hdr == [valueOffset + valueLen]byte{}, nil
	default:
		return false, nil
	}
}
