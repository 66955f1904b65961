package compress

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("hola mundo "), 200)
	random := []byte{0x01, 0x9f, 0x33, 0x70}

	for _, typ := range []Type{None, LZ4, ZSTD} {
		for name, data := range map[string][]byte{"compressible": compressible, "tiny": random, "empty": {}} {
			t.Run(typ.String()+"/"+name, func(t *testing.T) {
				block, err := CompressBlock(data, typ)
				require.NoError(t, err)

				out, err := DecompressBlock(block, typ)
				require.NoError(t, err)
				assert.Equal(t, len(data), len(out))
				assert.True(t, bytes.Equal(data, out))
			})
		}
	}
}

func TestBlockShrinks(t *testing.T) {
	data := bytes.Repeat([]byte("citrus "), 300)
	block, err := CompressBlock(data, LZ4)
	require.NoError(t, err)
	assert.Less(t, len(block), len(data))
}

func TestDecompressBlock_Corrupt(t *testing.T) {
	_, err := DecompressBlock([]byte{1, 2}, LZ4)
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := CompressBlock(bytes.Repeat([]byte("a"), 100), LZ4)
	require.NoError(t, err)
	_, err = DecompressBlock(block[:len(block)-1], LZ4)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStreamRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("study group "), 1000)

	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Less(t, buf.Len(), len(data))

	r, err := NewStreamReader(&buf)
	require.NoError(t, err)
	defer r.Close()
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestStreamReader_Truncated(t *testing.T) {
	data := bytes.Repeat([]byte("flashcard "), 5000)

	var buf bytes.Buffer
	w, err := NewStreamWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewStreamReader(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	require.NoError(t, err)
	defer r.Close()

	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStreamReader_SourceError(t *testing.T) {
	boom := errors.New("network down")
	r, err := NewStreamReader(iotest.ErrReader(boom))
	if err == nil {
		defer r.Close()
		_, err = io.ReadAll(r)
	}
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCorrupt)
}
