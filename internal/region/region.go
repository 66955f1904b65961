package region

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/linguastore/internal/memory"
)

// ID identifies a region. Valid ids are 0 to MaxRegions-1.
type ID uint8

const (
	// MaxRegions is the number of addressable regions.
	MaxRegions = 255
	// MaxBuckets is the number of buckets the header can track.
	MaxBuckets = 32768
	// DefaultBucketPages is the bucket size used for new address spaces.
	DefaultBucketPages = 128

	layoutVersion = 1
	unallocated   = 0xFF

	offNumBuckets  = 4
	offBucketPages = 6
	offSizes       = 40
	offOwners      = offSizes + MaxRegions*8
	headerPages    = 1
)

var magic = [3]byte{'L', 'R', 'M'}

var (
	// ErrInvalidLayout is returned when the memory does not hold a region header.
	ErrInvalidLayout = errors.New("region: invalid layout")
	// ErrCorrupt is returned when the header contradicts itself.
	ErrCorrupt = errors.New("region: corrupt header")
	// ErrInvalidID is returned for ids outside [0, MaxRegions).
	ErrInvalidID = errors.New("region: invalid id")
)

// Manager owns a backing memory and hands out regions within it.
type Manager struct {
	mem         memory.Memory
	bucketPages uint64
	numBuckets  uint64
	sizes       [MaxRegions]uint64
	buckets     [MaxRegions][]uint16
	regions     map[ID]*Region
}

// NewManager initializes a manager over mem. An empty memory, or a header page
// whose format never completed, receives a fresh header with the given bucket size (DefaultBucketPages if 0); otherwise the
// existing header is recovered and bucketPages is ignored.
func NewManager(mem memory.Memory, bucketPages uint16) (*Manager, error) {
	m := &Manager{
		mem:     mem,
		regions: make(map[ID]*Region),
	}

	fresh, err := m.unformatted()
	if err != nil {
		return nil, err
	}
	if fresh {
		if bucketPages == 0 {
			bucketPages = DefaultBucketPages
		}
		if err := m.format(bucketPages); err != nil {
			return nil, err
		}
		return m, nil
	}

	if err := m.recover(); err != nil {
		return nil, err
	}
	return m, nil
}

// unformatted reports whether mem holds no manager yet: it is empty, or it is
// exactly the header page with no magic, left by a format that was cut short.
func (m *Manager) unformatted() (bool, error) {
	switch m.mem.Size() {
	case 0:
		return true, nil
	case headerPages:
		var got [3]byte
		if _, err := m.mem.ReadAt(got[:], 0); err != nil {
			return false, err
		}
		return got == [3]byte{}, nil
	default:
		return false, nil
	}
}

// format writes the header last, so the magic only appears once the owners
// table is in place.
func (m *Manager) format(bucketPages uint16) error {
	if m.mem.Size() == 0 {
		if _, err := m.mem.Grow(headerPages); err != nil {
			return err
		}
	}

	owners := make([]byte, MaxBuckets)
	for i := range owners {
		owners[i] = unallocated
	}
	if _, err := m.mem.WriteAt(owners, offOwners); err != nil {
		return err
	}

	var hdr [8]byte
	copy(hdr[:3], magic[:])
	hdr[3] = layoutVersion
	binary.LittleEndian.PutUint16(hdr[offBucketPages:], bucketPages)
	if _, err := m.mem.WriteAt(hdr[:], 0); err != nil {
		return err
	}

	m.bucketPages = uint64(bucketPages)
	return nil
}

func (m *Manager) recover() error {
	header := make([]byte, offOwners+MaxBuckets)
	if _, err := m.mem.ReadAt(header, 0); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if [3]byte(header[:3]) != magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidLayout, header[:3])
	}
	if header[3] != layoutVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidLayout, header[3])
	}

	m.numBuckets = uint64(binary.LittleEndian.Uint16(header[offNumBuckets:]))
	m.bucketPages = uint64(binary.LittleEndian.Uint16(header[offBucketPages:]))
	if m.bucketPages == 0 {
		return fmt.Errorf("%w: zero bucket size", ErrCorrupt)
	}

	for i := 0; i < MaxRegions; i++ {
		m.sizes[i] = binary.LittleEndian.Uint64(header[offSizes+i*8:])
	}

	for b := uint64(0); b < m.numBuckets; b++ {
		owner := header[offOwners+b]
		if owner == unallocated {
			return fmt.Errorf("%w: bucket %d counted but unowned", ErrCorrupt, b)
		}
		m.buckets[owner] = append(m.buckets[owner], uint16(b))
	}

	for i := 0; i < MaxRegions; i++ {
		if m.sizes[i] > uint64(len(m.buckets[i]))*m.bucketPages {
			return fmt.Errorf("%w: region %d claims %d pages but owns %d buckets",
				ErrCorrupt, i, m.sizes[i], len(m.buckets[i]))
		}
	}

	if need := headerPages + m.numBuckets*m.bucketPages; m.mem.Size() < need {
		return fmt.Errorf("%w: memory has %d pages, buckets need %d", ErrCorrupt, m.mem.Size(), need)
	}
	return nil
}

// Open returns the region with the given id. Repeated calls return the same
// handle.
func (m *Manager) Open(id ID) (*Region, error) {
	if id >= MaxRegions {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if r, ok := m.regions[id]; ok {
		return r, nil
	}
	r := &Region{id: id, mgr: m}
	m.regions[id] = r
	return r, nil
}

// Memory returns the backing memory.
func (m *Manager) Memory() memory.Memory {
	return m.mem
}

// BucketPages returns the bucket size in pages.
func (m *Manager) BucketPages() uint64 {
	return m.bucketPages
}

func (m *Manager) bucketBytes() uint64 {
	return m.bucketPages * memory.PageSize
}

func (m *Manager) bucketAddr(bucket uint16) uint64 {
	return headerPages*memory.PageSize + uint64(bucket)*m.bucketBytes()
}

func (m *Manager) grow(id ID, pages uint64) (uint64, error) {
	prev := m.sizes[id]
	if pages == 0 {
		return prev, nil
	}

	newSize := prev + pages
	wantBuckets := (newSize + m.bucketPages - 1) / m.bucketPages
	var need uint64
	if have := uint64(len(m.buckets[id])); wantBuckets > have {
		need = wantBuckets - have
	}

	if need > 0 {
		if m.numBuckets+need > MaxBuckets {
			return prev, fmt.Errorf("%w: all %d buckets allocated", memory.ErrExhausted, MaxBuckets)
		}

		required := headerPages + (m.numBuckets+need)*m.bucketPages
		if have := m.mem.Size(); have < required {
			if _, err := m.mem.Grow(required - have); err != nil {
				return prev, err
			}
		}

		owners := make([]byte, need)
		for i := range owners {
			owners[i] = byte(id)
		}
		if _, err := m.mem.WriteAt(owners, int64(offOwners+m.numBuckets)); err != nil {
			return prev, err
		}

		var count [2]byte
		binary.LittleEndian.PutUint16(count[:], uint16(m.numBuckets+need))
		if _, err := m.mem.WriteAt(count[:], offNumBuckets); err != nil {
			return prev, err
		}

		for i := uint64(0); i < need; i++ {
			m.buckets[id] = append(m.buckets[id], uint16(m.numBuckets+i))
		}
		m.numBuckets += need
	}

	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], newSize)
	if _, err := m.mem.WriteAt(size[:], int64(offSizes+uint64(id)*8)); err != nil {
		return prev, err
	}
	m.sizes[id] = newSize
	return prev, nil
}

// access splits [off, off+len(p)) at bucket boundaries and applies fn to each
// piece with its address in the backing memory.
func (m *Manager) access(id ID, p []byte, off int64, fn func([]byte, int64) (int, error)) (int, error) {
	if off < 0 || uint64(off)+uint64(len(p)) > m.sizes[id]*memory.PageSize {
		return 0, fmt.Errorf("%w: region %d offset %d length %d size %d",
			memory.ErrOutOfBounds, id, off, len(p), m.sizes[id]*memory.PageSize)
	}

	bucketBytes := m.bucketBytes()
	done := 0
	for done < len(p) {
		pos := uint64(off) + uint64(done)
		idx := pos / bucketBytes
		inBucket := pos % bucketBytes
		n := min(uint64(len(p)-done), bucketBytes-inBucket)

		addr := m.bucketAddr(m.buckets[id][idx]) + inBucket
		if _, err := fn(p[done:done+int(n)], int64(addr)); err != nil {
			return done, err
		}
		done += int(n)
	}
	return done, nil
}

// Region is a growable view onto the buckets owned by one id.
// It implements memory.Memory.
type Region struct {
	id  ID
	mgr *Manager
}

// ID returns the region id.
func (r *Region) ID() ID { return r.id }

// Size implements memory.Memory.
func (r *Region) Size() uint64 { return r.mgr.sizes[r.id] }

// Grow implements memory.Memory.
func (r *Region) Grow(pages uint64) (uint64, error) { return r.mgr.grow(r.id, pages) }

// ReadAt implements io.ReaderAt.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	return r.mgr.access(r.id, p, off, r.mgr.mem.ReadAt)
}

// WriteAt implements io.WriterAt.
func (r *Region) WriteAt(p []byte, off int64) (int, error) {
	return r.mgr.access(r.id, p, off, r.mgr.mem.WriteAt)
}

// Sync flushes the backing memory.
func (r *Region) Sync() error { return memory.Sync(r.mgr.mem) }
