package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Check value of the Castagnoli polynomial.
	assert.Equal(t, uint32(0xE3069283), CRC32C([]byte("123456789")))
	assert.Equal(t, uint32(0), CRC32C(nil))
}

func TestUpdateCRC32C(t *testing.T) {
	data := []byte("language learning content")
	assert.Equal(t, CRC32C(data), UpdateCRC32C(CRC32C(data[:8]), data[8:]))
}

func TestNewCRC32C(t *testing.T) {
	data := []byte("study group")

	h := NewCRC32C()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	assert.Equal(t, CRC32C(data), h.Sum32())
}
