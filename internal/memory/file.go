package memory

import (
	"fmt"
	"os"

	"github.com/hupe1980/linguastore/internal/fs"
	"github.com/hupe1980/linguastore/internal/mmap"
	"github.com/hupe1980/linguastore/internal/resource"
)

// File is a Memory backed by a memory-mapped file.
type File struct {
	f      fs.File
	m      *mmap.Mapping
	pages  uint64
	rc     *resource.Controller
	closed bool
}

// OpenFile maps the file at path, creating it empty if it does not exist.
// An existing file must be a whole number of pages long.
func OpenFile(fsys fs.FileSystem, path string, rc *resource.Controller) (*File, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	size := fi.Size()
	if size%PageSize != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("memory: %s: size %d is not a multiple of %d", path, size, PageSize)
	}

	pages := uint64(size) / PageSize
	if err := reserve(rc, pages); err != nil {
		_ = f.Close()
		return nil, err
	}

	m, err := mmap.Map(f.Fd(), int(size), mmap.ReadWrite)
	if err != nil {
		rc.ReleaseSpace(size)
		_ = f.Close()
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)

	return &File{f: f, m: m, pages: pages, rc: rc}, nil
}

// Size implements Memory.
func (fm *File) Size() uint64 {
	return fm.pages
}

// Grow implements Memory.
// The file is extended first and then remapped at its new size.
func (fm *File) Grow(pages uint64) (uint64, error) {
	prev := fm.pages
	if fm.closed {
		return prev, ErrClosed
	}
	if pages == 0 {
		return prev, nil
	}

	if err := reserve(fm.rc, pages); err != nil {
		return prev, err
	}

	newSize := int64((prev + pages) * PageSize)
	if err := fm.f.Truncate(newSize); err != nil {
		fm.rc.ReleaseSpace(int64(pages * PageSize))
		return prev, fmt.Errorf("%w: %w", ErrExhausted, err)
	}

	m, err := mmap.Map(fm.f.Fd(), int(newSize), mmap.ReadWrite)
	if err != nil {
		_ = fm.f.Truncate(int64(prev * PageSize))
		fm.rc.ReleaseSpace(int64(pages * PageSize))
		return prev, fmt.Errorf("%w: %w", ErrExhausted, err)
	}
	_ = m.Advise(mmap.AccessRandom)

	// MAP_SHARED pages live in the page cache; dropping the old view loses nothing.
	_ = fm.m.Close()
	fm.m = m
	fm.pages = prev + pages
	return prev, nil
}

// ReadAt implements io.ReaderAt.
func (fm *File) ReadAt(p []byte, off int64) (int, error) {
	if fm.closed {
		return 0, ErrClosed
	}
	if err := checkBounds(fm.pages, off, len(p)); err != nil {
		return 0, err
	}
	return copy(p, fm.m.Bytes()[off:]), nil
}

// WriteAt implements io.WriterAt.
func (fm *File) WriteAt(p []byte, off int64) (int, error) {
	if fm.closed {
		return 0, ErrClosed
	}
	if err := checkBounds(fm.pages, off, len(p)); err != nil {
		return 0, err
	}
	return copy(fm.m.Bytes()[off:], p), nil
}

// Sync flushes dirty pages and file metadata.
func (fm *File) Sync() error {
	if fm.closed {
		return ErrClosed
	}
	if err := fm.m.Sync(); err != nil {
		return err
	}
	return fm.f.Sync()
}

// Close unmaps and closes the file. It is idempotent.
func (fm *File) Close() error {
	if fm.closed {
		return nil
	}
	fm.closed = true
	fm.rc.ReleaseSpace(int64(fm.pages * PageSize))

	err := fm.m.Close()
	if cerr := fm.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Path returns the name of the underlying file.
func (fm *File) Path() string {
	return fm.f.Name()
}
