//go:build unix

package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/linguastore/internal/fs"
	"github.com/hupe1980/linguastore/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "space.bin")

	fm, err := OpenFile(nil, path, nil)
	require.NoError(t, err)
	assert.Zero(t, fm.Size())

	_, err = fm.Grow(1)
	require.NoError(t, err)
	_, err = fm.WriteAt([]byte("page one"), 10)
	require.NoError(t, err)

	_, err = fm.Grow(3)
	require.NoError(t, err)
	_, err = fm.WriteAt([]byte("page four"), 3*PageSize)
	require.NoError(t, err)

	require.NoError(t, fm.Sync())
	require.NoError(t, fm.Close())
	require.NoError(t, fm.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4*PageSize), info.Size())

	fm, err = OpenFile(nil, path, nil)
	require.NoError(t, err)
	defer fm.Close()

	assert.Equal(t, uint64(4), fm.Size())
	buf := make([]byte, 8)
	_, err = fm.ReadAt(buf, 10)
	require.NoError(t, err)
	assert.Equal(t, "page one", string(buf))

	buf = make([]byte, 9)
	_, err = fm.ReadAt(buf, 3*PageSize)
	require.NoError(t, err)
	assert.Equal(t, "page four", string(buf))
}

func TestFile_RejectsPartialPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.bin")
	require.NoError(t, os.WriteFile(path, []byte("not a page"), 0o644))

	_, err := OpenFile(nil, path, nil)
	assert.Error(t, err)
}

func TestFile_TruncateFailureIsExhaustion(t *testing.T) {
	dir := t.TempDir()
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("tight.bin", fs.Fault{MaxSize: 2 * PageSize})

	fm, err := OpenFile(ffs, filepath.Join(dir, "tight.bin"), nil)
	require.NoError(t, err)
	defer fm.Close()

	_, err = fm.Grow(2)
	require.NoError(t, err)

	_, err = fm.Grow(1)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, uint64(2), fm.Size())
}

func TestFile_Closed(t *testing.T) {
	fm, err := OpenFile(nil, filepath.Join(t.TempDir(), "c.bin"), nil)
	require.NoError(t, err)
	require.NoError(t, fm.Close())

	_, err = fm.Grow(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = fm.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, fm.Sync(), ErrClosed)
}

func TestFile_GrowMapFailureReleasesSpace(t *testing.T) {
	fsys := fs.NewFaultyFS(nil)
	fsys.AddRule("unmappable", fs.Fault{MaxSize: -1, BadFd: true})
	rc := resource.NewController(resource.Config{AddressSpaceLimitBytes: 4 * PageSize})

	path := filepath.Join(t.TempDir(), "unmappable.bin")
	fm, err := OpenFile(fsys, path, rc)
	require.NoError(t, err)
	defer fm.Close()

	_, err = fm.Grow(2)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, fm.Size())
	assert.Zero(t, rc.SpaceUsage())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}
