package omap

import (
	"slices"
)

// Iterator walks a snapshot of the map's keys in ascending order.
//
// Keys removed after the iterator was created are skipped; keys inserted
// afterwards are not visited. Call Iter again to restart.
type Iterator[V any] struct {
	m    *Map[V]
	keys []uint64
	pos  int
	key  uint64
	val  V
	err  error
}

// Iter returns an iterator over all entries in ascending key order.
func (m *Map[V]) Iter() *Iterator[V] {
	return &Iterator[V]{m: m, keys: m.keys.ToArray()}
}

// Range returns an iterator over keys in [from, to) in ascending order.
func (m *Map[V]) Range(from, to uint64) *Iterator[V] {
	keys := m.keys.ToArray()
	lo, _ := slices.BinarySearch(keys, from)
	hi, _ := slices.BinarySearch(keys, to)
	if hi < lo {
		hi = lo
	}
	return &Iterator[V]{m: m, keys: keys[lo:hi]}
}

// Next advances to the next entry. It returns false at the end or on error.
func (it *Iterator[V]) Next() bool {
	for it.err == nil && it.pos < len(it.keys) {
		k := it.keys[it.pos]
		it.pos++

		i, ok := it.m.index[k]
		if !ok {
			continue
		}
		v, err := it.m.load(i)
		if err != nil {
			it.err = err
			return false
		}
		it.key, it.val = k, v
		return true
	}
	return false
}

// Key returns the key of the current entry.
func (it *Iterator[V]) Key() uint64 { return it.key }

// Value returns the decoded value of the current entry.
func (it *Iterator[V]) Value() V { return it.val }

// Err returns the error that stopped iteration, if any.
func (it *Iterator[V]) Err() error { return it.err }
