// Package hash provides the checksums used for data integrity.
//
// Every checksum the store persists is CRC32-Castagnoli (CRC32C): map slot
// checksums, backup image checksums in manifests, and the S3 upload
// integrity header. Go's hash/crc32 uses the SSE4.2 and ARM CRC
// instructions for this polynomial when they are available.
//
// One-shot:
//
//	sum := hash.CRC32C(data)
//
// Over several buffers:
//
//	sum := hash.UpdateCRC32C(hash.CRC32C(header), value)
//
// Streaming:
//
//	h := hash.NewCRC32C()
//	_, _ = io.Copy(h, r)
//	sum := h.Sum32()
package hash
