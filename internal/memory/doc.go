// Package memory provides the flat, page-granular address space the store
// lives in.
//
// A [Memory] is a growable sequence of 64 KiB pages addressed by byte offset.
// Two implementations exist:
//
//   - [Heap]: an in-process byte slice, used by tests and in-memory stores.
//   - [File]: a file mapped read-write into memory. Growth truncates the file
//     upwards and remaps it; Sync flushes dirty pages with msync(2).
//
// Growth is charged against an optional resource.Controller. When the budget
// or the filesystem refuses to grow, Grow returns an error wrapping
// [ErrExhausted]; the address space can not be extended any further and
// callers treat this as fatal.
package memory
