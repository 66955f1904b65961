// Package omap implements a persistent ordered map from uint64 keys to
// bounded-size encoded values, stored in a single growable memory.
//
// # Layout
//
// A 64-byte header is followed by fixed-size slots:
//
//	header: magic "OMAP" | version | max value size | slot count | codec name
//	slot:   state | length | seq | key | crc32c | value[max]
//
// Every slot is large enough for the biggest allowed value, so a slot can be
// reused for any key. Free slots are tracked in a bitset and reused before
// the slot area grows.
//
// # Updates
//
// A write never modifies a live slot in place. Insert encodes the value into
// a free slot, flips its state to live and only then frees the slot holding
// the previous value. Each write carries a fresh sequence number. When
// recovery finds two live slots for one key (a crash between the two steps)
// the higher sequence wins and the other slot is freed.
//
// # Recovery
//
// Opening a non-empty memory scans all slots, verifies each live slot's
// checksum, and rebuilds the in-memory key index: a roaring64 bitmap of keys
// for ordered iteration and a key-to-slot map for point lookups.
//
// A Map is not safe for concurrent use.
package omap
