package memory

import (
	"github.com/hupe1980/linguastore/internal/resource"
)

// Heap is a Memory backed by a Go byte slice.
// Its contents do not outlive the process.
type Heap struct {
	data []byte
	rc   *resource.Controller
}

// NewHeap creates an empty heap memory. rc may be nil.
func NewHeap(rc *resource.Controller) *Heap {
	return &Heap{rc: rc}
}

// Size implements Memory.
func (h *Heap) Size() uint64 {
	return uint64(len(h.data)) / PageSize
}

// Grow implements Memory.
func (h *Heap) Grow(pages uint64) (uint64, error) {
	prev := h.Size()
	if pages == 0 {
		return prev, nil
	}
	if err := reserve(h.rc, pages); err != nil {
		return prev, err
	}
	h.data = append(h.data, make([]byte, pages*PageSize)...)
	return prev, nil
}

// ReadAt implements io.ReaderAt.
func (h *Heap) ReadAt(p []byte, off int64) (int, error) {
	if err := checkBounds(h.Size(), off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, h.data[off:]), nil
}

// WriteAt implements io.WriterAt.
func (h *Heap) WriteAt(p []byte, off int64) (int, error) {
	if err := checkBounds(h.Size(), off, len(p)); err != nil {
		return 0, err
	}
	return copy(h.data[off:], p), nil
}
