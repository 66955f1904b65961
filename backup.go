package linguastore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/linguastore/blobstore"
	"github.com/hupe1980/linguastore/internal/compress"
	"github.com/hupe1980/linguastore/internal/hash"
	"github.com/hupe1980/linguastore/internal/memory"
	"github.com/hupe1980/linguastore/internal/resource"
)

// ManifestSuffix is appended to a backup name to form its manifest name.
const ManifestSuffix = ".manifest.json"

// BackupInfo describes a backup image. It is stored as JSON next to the
// image under the backup name plus ManifestSuffix.
type BackupInfo struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Pages     uint64    `json:"pages"`
	Bytes     uint64    `json:"bytes"`
	Checksum  uint32    `json:"checksum"`
	Codec     string    `json:"codec"`
	CreatedAt time.Time `json:"created_at"`
}

// Backup writes a zstd-compressed image of the whole address space to bs
// under name, followed by its manifest. Other operations wait until the
// backup completes, so the image is consistent.
func (s *Store) Backup(ctx context.Context, bs blobstore.BlobStore, name string) (BackupInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.backup(ctx, bs, name)
	s.opts.logger.LogBackup(ctx, "backup", name, info.Bytes, err)
	return info, err
}

func (s *Store) backup(ctx context.Context, bs blobstore.BlobStore, name string) (BackupInfo, error) {
	if err := s.checkOpen(); err != nil {
		return BackupInfo{}, err
	}
	if err := memory.Sync(s.mem); err != nil {
		return BackupInfo{}, translateError("", err)
	}

	info := BackupInfo{
		ID:        uuid.New(),
		Name:      name,
		Pages:     s.mem.Size(),
		Bytes:     memory.Bytes(s.mem),
		Codec:     s.opts.codec.Name(),
		CreatedAt: s.opts.clock().UTC(),
	}

	w, err := bs.Create(ctx, name)
	if err != nil {
		return BackupInfo{}, err
	}

	sum, err := writeImage(ctx, w, memory.NewReader(s.mem), s.rc)
	if err != nil {
		if a, ok := w.(blobstore.Aborter); ok {
			_ = a.Abort(ctx)
		}
		return BackupInfo{}, fmt.Errorf("backup %s: %w", name, err)
	}
	info.Checksum = sum

	manifest, err := json.Marshal(info)
	if err != nil {
		return BackupInfo{}, err
	}
	if err := bs.Put(ctx, name+ManifestSuffix, manifest); err != nil {
		return BackupInfo{}, fmt.Errorf("backup %s: manifest: %w", name, err)
	}
	return info, nil
}

// writeImage compresses src into w and returns the CRC32C of the raw bytes.
// Compression and upload run concurrently, connected by a pipe.
func writeImage(ctx context.Context, w io.WriteCloser, src io.Reader, rc *resource.Controller) (uint32, error) {
	h := hash.NewCRC32C()
	pr, pw := io.Pipe()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zw, err := compress.NewStreamWriter(pw)
		if err != nil {
			_ = pw.CloseWithError(err)
			return err
		}
		_, err = io.Copy(zw, resource.NewRateLimitedReader(gctx, io.TeeReader(src, h), rc))
		if cerr := zw.Close(); err == nil {
			err = cerr
		}
		_ = pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(w, pr)
		_ = pr.CloseWithError(err)
		return err
	})

	if err := g.Wait(); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

// ReadBackupInfo loads the manifest of the backup called name.
func ReadBackupInfo(ctx context.Context, bs blobstore.BlobStore, name string) (BackupInfo, error) {
	data, err := blobstore.ReadAll(ctx, bs, name+ManifestSuffix)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return BackupInfo{}, fmt.Errorf("backup %q: %w", name, ErrNotFound)
		}
		return BackupInfo{}, err
	}

	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return BackupInfo{}, fmt.Errorf("%w: backup %q manifest: %w", ErrCorrupt, name, err)
	}
	return info, nil
}

// ListBackups returns the manifests of all backups in bs, ordered by name.
func ListBackups(ctx context.Context, bs blobstore.BlobStore) ([]BackupInfo, error) {
	names, err := bs.List(ctx, "")
	if err != nil {
		return nil, err
	}

	infos := make([]BackupInfo, 0)
	for _, n := range names {
		name, ok := strings.CutSuffix(n, ManifestSuffix)
		if !ok {
			continue
		}
		info, err := ReadBackupInfo(ctx, bs, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Restore writes the backup called name to a new store file at path.
// An existing file at path is never overwritten; Restore fails with
// ErrExists instead. The image is verified against its manifest before it
// is moved into place.
func Restore(ctx context.Context, bs blobstore.BlobStore, name, path string, optFns ...Option) (BackupInfo, error) {
	o := applyOptions(optFns)

	info, err := restore(ctx, o, bs, name, path)
	o.logger.LogBackup(ctx, "restore", name, info.Bytes, err)
	return info, err
}

func restore(ctx context.Context, o options, bs blobstore.BlobStore, name, path string) (BackupInfo, error) {
	if _, err := o.fs.Stat(path); err == nil {
		return BackupInfo{}, fmt.Errorf("restore %s: %w", path, ErrExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return BackupInfo{}, err
	}

	info, err := ReadBackupInfo(ctx, bs, name)
	if err != nil {
		return BackupInfo{}, err
	}

	blob, err := bs.Open(ctx, name)
	if err != nil {
		return BackupInfo{}, err
	}
	defer func() { _ = blob.Close() }()

	r, err := blobstore.NewReader(ctx, blob)
	if err != nil {
		return BackupInfo{}, err
	}
	defer func() { _ = r.Close() }()

	rc := newController(o)
	zr, err := compress.NewStreamReader(resource.NewRateLimitedReader(ctx, bufio.NewReaderSize(r, 1<<20), rc))
	if err != nil {
		return BackupInfo{}, translateError("", err)
	}
	defer func() { _ = zr.Close() }()

	tmp := path + ".restore"
	f, err := o.fs.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return BackupInfo{}, err
	}

	if err := copyVerified(f, zr, info); err != nil {
		_ = f.Close()
		_ = o.fs.Remove(tmp)
		return BackupInfo{}, err
	}
	if err := f.Close(); err != nil {
		_ = o.fs.Remove(tmp)
		return BackupInfo{}, err
	}
	if err := o.fs.Rename(tmp, path); err != nil {
		_ = o.fs.Remove(tmp)
		return BackupInfo{}, err
	}
	return info, nil
}

type syncWriter interface {
	io.Writer
	Sync() error
}

func copyVerified(dst syncWriter, src io.Reader, info BackupInfo) error {
	h := hash.NewCRC32C()
	n, err := io.Copy(io.MultiWriter(dst, h), src)
	if err != nil {
		return translateError("", err)
	}
	if uint64(n) != info.Bytes || info.Bytes != info.Pages*memory.PageSize {
		return fmt.Errorf("%w: backup %q holds %d bytes, manifest says %d", ErrCorrupt, info.Name, n, info.Bytes)
	}
	if sum := h.Sum32(); sum != info.Checksum {
		return fmt.Errorf("%w: backup %q checksum %08x, manifest says %08x", ErrCorrupt, info.Name, sum, info.Checksum)
	}
	return dst.Sync()
}
