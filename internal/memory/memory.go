package memory

import (
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/linguastore/internal/resource"
)

// PageSize is the allocation granularity of every Memory.
const PageSize = 64 << 10

var (
	// ErrExhausted is returned when the address space cannot grow any further.
	ErrExhausted = errors.New("memory: address space exhausted")
	// ErrOutOfBounds is returned for accesses beyond Size()*PageSize.
	ErrOutOfBounds = errors.New("memory: access out of bounds")
	// ErrClosed is returned when using a closed memory.
	ErrClosed = errors.New("memory: closed")
)

// Memory is a growable, page-granular byte address space.
type Memory interface {
	io.ReaderAt
	io.WriterAt
	// Size returns the current size in pages.
	Size() uint64
	// Grow extends the memory by pages and returns the previous size in pages.
	Grow(pages uint64) (uint64, error)
}

// Syncer is implemented by memories that can flush writes to durable storage.
type Syncer interface {
	Sync() error
}

// Sync flushes m if it supports it.
func Sync(m Memory) error {
	if s, ok := m.(Syncer); ok {
		return s.Sync()
	}
	return nil
}

// Bytes returns the size of m in bytes.
func Bytes(m Memory) uint64 {
	return m.Size() * PageSize
}

// NewReader returns a reader over the whole of m.
func NewReader(m Memory) *io.SectionReader {
	return io.NewSectionReader(m, 0, int64(Bytes(m)))
}

func checkBounds(pages uint64, off int64, n int) error {
	if off < 0 || uint64(off)+uint64(n) > pages*PageSize {
		return fmt.Errorf("%w: offset %d length %d size %d", ErrOutOfBounds, off, n, pages*PageSize)
	}
	return nil
}

func reserve(rc *resource.Controller, pages uint64) error {
	if err := rc.AcquireSpace(int64(pages * PageSize)); err != nil {
		return fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	return nil
}
