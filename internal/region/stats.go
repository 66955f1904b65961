package region

// Stats describes bucket usage of a manager.
type Stats struct {
	BucketPages      uint64            `json:"bucket_pages"`
	AllocatedBuckets uint64            `json:"allocated_buckets"`
	MaxBuckets       uint64            `json:"max_buckets"`
	BackingPages     uint64            `json:"backing_pages"`
	Regions          map[ID]RegionStat `json:"regions"`
}

// RegionStat describes one non-empty region.
type RegionStat struct {
	Pages   uint64 `json:"pages"`
	Buckets int    `json:"buckets"`
}

// Stats returns a snapshot of bucket usage. Regions that never grew are omitted.
func (m *Manager) Stats() Stats {
	s := Stats{
		BucketPages:      m.bucketPages,
		AllocatedBuckets: m.numBuckets,
		MaxBuckets:       MaxBuckets,
		BackingPages:     m.mem.Size(),
		Regions:          make(map[ID]RegionStat),
	}
	for i := 0; i < MaxRegions; i++ {
		if len(m.buckets[i]) == 0 {
			continue
		}
		s.Regions[ID(i)] = RegionStat{Pages: m.sizes[i], Buckets: len(m.buckets[i])}
	}
	return s
}
