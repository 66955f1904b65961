package omap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/linguastore/codec"
	"github.com/hupe1980/linguastore/internal/hash"
	"github.com/hupe1980/linguastore/internal/memory"
)

const (
	layoutVersion = 1
	headerSize    = 64
	codecNameLen  = 32

	offVersion   = 4
	offMaxValue  = 8
	offSlotCount = 16
	offCodec     = 24

	slotHeaderSize = 32

	stateFree = 0
	stateLive = 1
)

var magic = [4]byte{'O', 'M', 'A', 'P'}

var (
	// ErrInvalidLayout is returned when the memory holds no map header.
	ErrInvalidLayout = errors.New("omap: invalid layout")
	// ErrLayoutMismatch is returned when a stored map was written with a
	// different value size bound or codec.
	ErrLayoutMismatch = errors.New("omap: layout mismatch")
	// ErrCorrupt is returned when a stored value fails its checksum or decode.
	ErrCorrupt = errors.New("omap: corrupt entry")
)

// Map is a persistent ordered map from uint64 to V.
type Map[V any] struct {
	mem      memory.Memory
	codec    codec.Codec
	maxValue uint32
	slotSize uint64
	slots    uint64
	seq      uint64

	index map[uint64]uint64 // key -> slot
	keys  *roaring64.Bitmap
	free  *bitset.BitSet
}

// Open binds a map to mem. An empty memory is formatted; otherwise the stored
// entries are recovered. maxValue bounds the encoded size of every value.
func Open[V any](mem memory.Memory, c codec.Codec, maxValue uint32) (*Map[V], error) {
	if c == nil {
		c = codec.Default
	}
	if len(c.Name()) > codecNameLen {
		return nil, fmt.Errorf("omap: codec name %q too long", c.Name())
	}

	m := &Map[V]{
		mem:      mem,
		codec:    c,
		maxValue: maxValue,
		slotSize: slotHeaderSize + (uint64(maxValue)+7)&^7,
		index:    make(map[uint64]uint64),
		keys:     roaring64.New(),
		free:     bitset.New(0),
	}

	fresh, err := m.unformatted()
	if err != nil {
		return nil, err
	}
	if fresh {
		if err := m.format(); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.recover(); err != nil {
		return nil, err
	}
	return m, nil
}

// unformatted reports whether mem is empty or is a single page whose header
// was never written.
func (m *Map[V]) unformatted() (bool, error) {
	switch m.mem.Size() {
	case 0:
		return true, nil
	case 1:
		var hdr [headerSize]byte
		if _, err := m.mem.ReadAt(hdr[:], 0); err != nil {
			return false, err
		}
		return hdr == [headerSize]byte{}, nil
	default:
		return false, nil
	}
}

func (m *Map[V]) format() error {
	if m.mem.Size() == 0 {
		if _, err := m.mem.Grow(1); err != nil {
			return err
		}
	}

	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	hdr[offVersion] = layoutVersion
	binary.LittleEndian.PutUint32(hdr[offMaxValue:], m.maxValue)
	copy(hdr[offCodec:offCodec+codecNameLen], m.codec.Name())
	_, err := m.mem.WriteAt(hdr[:], 0)
	return err
}

func (m *Map[V]) recover() error {
	var hdr [headerSize]byte
	if _, err := m.mem.ReadAt(hdr[:], 0); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if [4]byte(hdr[:4]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidLayout, hdr[:4])
	}
	if hdr[offVersion] != layoutVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidLayout, hdr[offVersion])
	}
	if stored := binary.LittleEndian.Uint32(hdr[offMaxValue:]); stored != m.maxValue {
		return fmt.Errorf("%w: stored max value size %d, configured %d", ErrLayoutMismatch, stored, m.maxValue)
	}
	if stored := string(bytes.TrimRight(hdr[offCodec:offCodec+codecNameLen], "\x00")); stored != m.codec.Name() {
		return fmt.Errorf("%w: stored codec %q, configured %q", ErrLayoutMismatch, stored, m.codec.Name())
	}

	m.slots = binary.LittleEndian.Uint64(hdr[offSlotCount:])
	if end := m.slotOffset(m.slots); end > memory.Bytes(m.mem) {
		return fmt.Errorf("%w: %d slots exceed memory of %d bytes", ErrCorrupt, m.slots, memory.Bytes(m.mem))
	}

	seqOf := make(map[uint64]uint64, m.slots)
	for i := uint64(0); i < m.slots; i++ {
		s, err := m.readSlot(i)
		if err != nil {
			return err
		}
		if s.state != stateLive {
			m.free.Set(uint(i))
			continue
		}

		m.seq = max(m.seq, s.seq)

		if prev, ok := m.index[s.key]; ok {
			// Interrupted overwrite: keep the newer write.
			stale := prev
			if seqOf[prev] > s.seq {
				stale = i
			}
			if err := m.writeState(stale, stateFree); err != nil {
				return err
			}
			m.free.Set(uint(stale))
			if stale == i {
				continue
			}
		}

		m.index[s.key] = i
		seqOf[i] = s.seq
		m.keys.Add(s.key)
	}
	return nil
}

func (m *Map[V]) slotOffset(i uint64) uint64 {
	return headerSize + i*m.slotSize
}

type slot struct {
	state uint8
	seq   uint64
	key   uint64
	value []byte
}

func (m *Map[V]) readSlot(i uint64) (slot, error) {
	off := int64(m.slotOffset(i))

	var hdr [slotHeaderSize]byte
	if _, err := m.mem.ReadAt(hdr[:], off); err != nil {
		return slot{}, err
	}

	s := slot{
		state: hdr[0],
		seq:   binary.LittleEndian.Uint64(hdr[8:16]),
		key:   binary.LittleEndian.Uint64(hdr[16:24]),
	}
	if s.state != stateLive {
		return s, nil
	}

	length := binary.LittleEndian.Uint32(hdr[4:8])
	if length > m.maxValue {
		return slot{}, fmt.Errorf("%w: slot %d length %d exceeds %d", ErrCorrupt, i, length, m.maxValue)
	}

	s.value = make([]byte, length)
	if _, err := m.mem.ReadAt(s.value, off+slotHeaderSize); err != nil {
		return slot{}, err
	}

	if sum := checksum(hdr[4:24], s.value); sum != binary.LittleEndian.Uint32(hdr[24:28]) {
		return slot{}, fmt.Errorf("%w: slot %d checksum mismatch", ErrCorrupt, i)
	}
	return s, nil
}

func checksum(meta, value []byte) uint32 {
	return hash.UpdateCRC32C(hash.CRC32C(meta), value)
}

// writeSlot stores an entry in slot i. The state byte is written last so a
// torn write leaves the slot free.
func (m *Map[V]) writeSlot(i, key, seq uint64, value []byte) error {
	off := int64(m.slotOffset(i))

	buf := make([]byte, slotHeaderSize+len(value))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(value)))
	binary.LittleEndian.PutUint64(buf[8:16], seq)
	binary.LittleEndian.PutUint64(buf[16:24], key)
	binary.LittleEndian.PutUint32(buf[24:28], checksum(buf[4:24], value))
	copy(buf[slotHeaderSize:], value)

	if _, err := m.mem.WriteAt(buf, off); err != nil {
		return err
	}
	return m.writeState(i, stateLive)
}

func (m *Map[V]) writeState(i uint64, state uint8) error {
	_, err := m.mem.WriteAt([]byte{state}, int64(m.slotOffset(i)))
	return err
}

// allocSlot returns a free slot, extending the slot area when none is left.
func (m *Map[V]) allocSlot() (uint64, error) {
	if i, ok := m.free.NextSet(0); ok {
		m.free.Clear(i)
		return uint64(i), nil
	}

	i := m.slots
	need := m.slotOffset(i + 1)
	if have := memory.Bytes(m.mem); need > have {
		pages := (need - have + memory.PageSize - 1) / memory.PageSize
		if _, err := m.mem.Grow(pages); err != nil {
			return 0, err
		}
	}

	var count [8]byte
	binary.LittleEndian.PutUint64(count[:], i+1)
	if _, err := m.mem.WriteAt(count[:], offSlotCount); err != nil {
		return 0, err
	}
	m.slots = i + 1
	return i, nil
}

func (m *Map[V]) load(i uint64) (V, error) {
	var v V
	s, err := m.readSlot(i)
	if err != nil {
		return v, err
	}
	if s.state != stateLive {
		return v, fmt.Errorf("%w: slot %d is not live", ErrCorrupt, i)
	}
	if err := m.codec.Unmarshal(s.value, &v); err != nil {
		return v, fmt.Errorf("%w: slot %d: %w", ErrCorrupt, i, err)
	}
	return v, nil
}

// Get returns a decoded copy of the value stored under key.
func (m *Map[V]) Get(key uint64) (V, bool, error) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	v, err := m.load(i)
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}

// Contains reports whether key is present.
func (m *Map[V]) Contains(key uint64) bool {
	_, ok := m.index[key]
	return ok
}

// Insert stores v under key. If key was present, its previous value is
// returned with ok set. Values encoding beyond the size bound fail with
// *codec.ErrTooLarge and leave the map unchanged.
func (m *Map[V]) Insert(key uint64, v V) (prev V, ok bool, err error) {
	data, err := codec.MarshalBounded(m.codec, v, int(m.maxValue))
	if err != nil {
		return prev, false, err
	}

	old, exists := m.index[key]
	if exists {
		if prev, err = m.load(old); err != nil {
			return prev, false, err
		}
	}

	i, err := m.allocSlot()
	if err != nil {
		return prev, false, err
	}
	if err := m.writeSlot(i, key, m.seq+1, data); err != nil {
		m.free.Set(uint(i))
		return prev, false, err
	}
	m.seq++

	if exists {
		if err := m.writeState(old, stateFree); err != nil {
			return prev, false, err
		}
		m.free.Set(uint(old))
	}

	m.index[key] = i
	m.keys.Add(key)
	return prev, exists, nil
}

// Remove deletes key and returns the value it held.
func (m *Map[V]) Remove(key uint64) (V, bool, error) {
	i, ok := m.index[key]
	if !ok {
		var zero V
		return zero, false, nil
	}

	v, err := m.load(i)
	if err != nil {
		return v, false, err
	}
	if err := m.writeState(i, stateFree); err != nil {
		return v, false, err
	}

	m.free.Set(uint(i))
	delete(m.index, key)
	m.keys.Remove(key)
	return v, true, nil
}

// Len returns the number of entries.
func (m *Map[V]) Len() uint64 {
	return m.keys.GetCardinality()
}

// MaxValueSize returns the encoded size bound of values.
func (m *Map[V]) MaxValueSize() uint32 {
	return m.maxValue
}

// Codec returns the codec values are stored with.
func (m *Map[V]) Codec() codec.Codec {
	return m.codec
}
