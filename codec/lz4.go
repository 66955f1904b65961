package codec

import (
	"github.com/hupe1980/linguastore/internal/compress"
)

const lz4Prefix = "lz4+"

// LZ4 wraps another codec and compresses its output with LZ4 block
// compression. Long free-text records fit a smaller size bound this way.
type LZ4 struct {
	Codec Codec
}

func (c LZ4) inner() Codec {
	if c.Codec == nil {
		return Default
	}
	return c.Codec
}

// Marshal encodes v with the inner codec and compresses the result.
func (c LZ4) Marshal(v any) ([]byte, error) {
	b, err := c.inner().Marshal(v)
	if err != nil {
		return nil, err
	}
	return compress.CompressBlock(b, compress.LZ4)
}

// Unmarshal decompresses data and decodes it with the inner codec.
func (c LZ4) Unmarshal(data []byte, v any) error {
	b, err := compress.DecompressBlock(data, compress.LZ4)
	if err != nil {
		return err
	}
	return c.inner().Unmarshal(b, v)
}

// Name returns "lz4+" followed by the inner codec name.
func (c LZ4) Name() string { return lz4Prefix + c.inner().Name() }
