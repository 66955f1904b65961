// Package region partitions one flat memory into independently growable
// regions.
//
// # Layout
//
// The first page of the backing memory holds the manager header:
//
//	offset  size            field
//	0       3               magic "LRM"
//	3       1               layout version
//	4       2               number of allocated buckets
//	6       2               bucket size in pages
//	8       32              reserved
//	40      255 * 8         size of each region in pages
//	2080    32768 * 1       owner region of each bucket (0xFF = free)
//
// Buckets follow the header page back to back. A region's address space is
// the concatenation of the buckets it owns, in allocation order. Buckets are
// handed out on demand and never shared, so regions cannot overlap no matter
// in which order they grow.
//
// # Crash safety
//
// Grow writes the owner entries of new buckets first, then the bucket count,
// then the region size. Owner entries beyond the count are ignored on
// recovery, and a bucket counted but not yet covered by the region size is
// harmless slack, so a torn Grow never corrupts another region.
package region
