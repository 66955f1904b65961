// Package mmap provides memory-mapped file access for the backing address space.
//
// # Overview
//
// The store keeps its whole address space in a single file that is mapped
// into memory. Reads and writes go straight to the mapping; Sync flushes
// dirty pages back to the file with msync(2).
//
// # Usage
//
//	m, err := mmap.Map(fd, size, mmap.ReadWrite)
//	if err != nil { ... }
//	defer m.Close()
//
//	copy(m.Bytes()[off:], payload)
//	_ = m.Sync()
//
// # Platform Support
//
// Unix platforms use mmap(2), msync(2) and madvise(2). Other platforms return
// ErrUnsupported from Map.
//
// # Thread Safety
//
// Close is idempotent and protected by atomic operations. Callers must ensure
// no goroutine touches Bytes() after Close() returns.
package mmap
