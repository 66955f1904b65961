// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file that can be read, written, truncated and mapped
//   - [FileSystem]: filesystem operations (open, remove, rename, stat, mkdir)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (failed growth, sync, close)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
//
// Tests can inject [FaultyFS] to simulate an exhausted backing file:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("store.lng", fs.Fault{MaxSize: 1 << 20})
//
// Filesystem operations carry no context.Context; they are local and
// non-interruptible at the syscall level.
package fs
