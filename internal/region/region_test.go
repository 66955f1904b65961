package region

import (
	"bytes"
	"testing"

	"github.com/hupe1980/linguastore/internal/memory"
	"github.com/hupe1980/linguastore/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, bucketPages uint16) (*Manager, *memory.Heap) {
	t.Helper()
	mem := memory.NewHeap(nil)
	m, err := NewManager(mem, bucketPages)
	require.NoError(t, err)
	return m, mem
}

func TestManager_OpenIsIdempotent(t *testing.T) {
	m, _ := newManager(t, 1)

	a, err := m.Open(3)
	require.NoError(t, err)
	b, err := m.Open(3)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, ID(3), a.ID())

	_, err = m.Open(MaxRegions)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestManager_InterleavedGrowthDoesNotOverlap(t *testing.T) {
	m, _ := newManager(t, 1)

	r0, _ := m.Open(0)
	r1, _ := m.Open(1)

	// Alternate growth so the buckets of both regions interleave.
	for i := 0; i < 3; i++ {
		_, err := r0.Grow(1)
		require.NoError(t, err)
		_, err = r1.Grow(1)
		require.NoError(t, err)
	}

	fill := func(r *Region, b byte) {
		data := bytes.Repeat([]byte{b}, int(r.Size()*memory.PageSize))
		_, err := r.WriteAt(data, 0)
		require.NoError(t, err)
	}
	fill(r0, 0xAA)
	fill(r1, 0xBB)

	check := func(r *Region, b byte) {
		data := make([]byte, r.Size()*memory.PageSize)
		_, err := r.ReadAt(data, 0)
		require.NoError(t, err)
		assert.Equal(t, bytes.Repeat([]byte{b}, len(data)), data)
	}
	check(r0, 0xAA)
	check(r1, 0xBB)

	assert.Equal(t, uint64(6), m.Stats().AllocatedBuckets)
}

func TestRegion_WriteSpanningBuckets(t *testing.T) {
	m, _ := newManager(t, 1)
	r0, _ := m.Open(0)
	r1, _ := m.Open(1)

	_, err := r0.Grow(1)
	require.NoError(t, err)
	_, err = r1.Grow(1)
	require.NoError(t, err)
	_, err = r0.Grow(1)
	require.NoError(t, err)

	payload := []byte("straddles the bucket boundary")
	off := int64(memory.PageSize - 10)
	_, err = r0.WriteAt(payload, off)
	require.NoError(t, err)

	got := make([]byte, len(payload))
	_, err = r0.ReadAt(got, off)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Region 1 owns the bucket between the two halves and must be untouched.
	other := make([]byte, memory.PageSize)
	_, err = r1.ReadAt(other, 0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, memory.PageSize), other)
}

func TestRegion_Bounds(t *testing.T) {
	m, _ := newManager(t, 4)
	r, _ := m.Open(2)

	_, err := r.WriteAt([]byte("x"), 0)
	assert.ErrorIs(t, err, memory.ErrOutOfBounds)

	prev, err := r.Grow(1)
	require.NoError(t, err)
	assert.Zero(t, prev)

	// The bucket holds 4 pages but the region only claims 1.
	_, err = r.ReadAt(make([]byte, 2), memory.PageSize-1)
	assert.ErrorIs(t, err, memory.ErrOutOfBounds)

	prev, err = r.Grow(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), prev)
	assert.Equal(t, uint64(1), m.Stats().AllocatedBuckets)
}

func TestManager_Recover(t *testing.T) {
	m, mem := newManager(t, 2)
	r0, _ := m.Open(0)
	r5, _ := m.Open(5)

	_, err := r0.Grow(1)
	require.NoError(t, err)
	_, err = r5.Grow(3)
	require.NoError(t, err)
	_, err = r0.Grow(2)
	require.NoError(t, err)

	_, err = r0.WriteAt([]byte("zero"), 2*memory.PageSize+7)
	require.NoError(t, err)
	_, err = r5.WriteAt([]byte("five"), 3*memory.PageSize-4)
	require.NoError(t, err)

	// Bucket size passed on recovery is ignored.
	m2, err := NewManager(mem, 64)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m2.BucketPages())

	r0b, _ := m2.Open(0)
	r5b, _ := m2.Open(5)
	assert.Equal(t, uint64(3), r0b.Size())
	assert.Equal(t, uint64(3), r5b.Size())

	buf := make([]byte, 4)
	_, err = r0b.ReadAt(buf, 2*memory.PageSize+7)
	require.NoError(t, err)
	assert.Equal(t, "zero", string(buf))

	_, err = r5b.ReadAt(buf, 3*memory.PageSize-4)
	require.NoError(t, err)
	assert.Equal(t, "five", string(buf))

	stats := m2.Stats()
	assert.Equal(t, RegionStat{Pages: 3, Buckets: 2}, stats.Regions[0])
	assert.Equal(t, RegionStat{Pages: 3, Buckets: 2}, stats.Regions[5])
	assert.Len(t, stats.Regions, 2)
}

func TestManager_TornGrowIsIgnored(t *testing.T) {
	m, mem := newManager(t, 1)
	r0, _ := m.Open(0)
	_, err := r0.Grow(1)
	require.NoError(t, err)

	// Simulate a crash after an owner entry was written but before the count.
	_, err = mem.WriteAt([]byte{7}, int64(offOwners+1))
	require.NoError(t, err)

	m2, err := NewManager(mem, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m2.Stats().AllocatedBuckets)

	r7, _ := m2.Open(7)
	assert.Zero(t, r7.Size())
	_, err = r7.Grow(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m2.Stats().AllocatedBuckets)
}

func TestManager_InvalidLayout(t *testing.T) {
	mem := memory.NewHeap(nil)
	_, err := mem.Grow(1)
	require.NoError(t, err)
	_, err = mem.WriteAt([]byte("XYZ"), 0)
	require.NoError(t, err)

	_, err = NewManager(mem, 0)
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestManager_ZeroedHeaderPage(t *testing.T) {
	mem := memory.NewHeap(nil)
	_, err := mem.Grow(headerPages)
	require.NoError(t, err)

	m, err := NewManager(mem, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.BucketPages())
	assert.Equal(t, uint64(headerPages), mem.Size())

	r, err := m.Open(0)
	require.NoError(t, err)
	_, err = r.Grow(1)
	require.NoError(t, err)

	m2, err := NewManager(mem, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m2.BucketPages())
}

func TestManager_CorruptSize(t *testing.T) {
	m, mem := newManager(t, 1)
	r, _ := m.Open(0)
	_, err := r.Grow(1)
	require.NoError(t, err)

	// Claim more pages than the owned bucket provides.
	_, err = mem.WriteAt([]byte{9}, offSizes)
	require.NoError(t, err)

	_, err = NewManager(mem, 0)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestManager_Exhausted(t *testing.T) {
	rc := resource.NewController(resource.Config{AddressSpaceLimitBytes: 3 * memory.PageSize})
	mem := memory.NewHeap(rc)
	m, err := NewManager(mem, 1)
	require.NoError(t, err)

	r, _ := m.Open(1)
	_, err = r.Grow(2)
	require.NoError(t, err)

	_, err = r.Grow(1)
	assert.ErrorIs(t, err, memory.ErrExhausted)
	assert.Equal(t, uint64(2), r.Size())
}
