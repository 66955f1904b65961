package linguastore

import (
	"context"
	"sync"

	"github.com/hupe1980/linguastore/codec"
	"github.com/hupe1980/linguastore/internal/cell"
	"github.com/hupe1980/linguastore/internal/memory"
	"github.com/hupe1980/linguastore/internal/omap"
	"github.com/hupe1980/linguastore/internal/region"
	"github.com/hupe1980/linguastore/internal/resource"
)

// MaxRecordSize bounds the encoded size of a single record of either
// collection. Changing it is a breaking layout change.
const MaxRecordSize = 2048

// Region identifiers of the persisted layout. They never change.
const (
	RegionIDCounter   region.ID = 0
	RegionContent     region.ID = 1
	RegionStudyGroups region.ID = 2
)

// Store holds both entity collections and the shared ID allocator.
//
// Every method is serialized by an internal mutex and leaves the persisted
// state consistent before returning.
type Store struct {
	mu     sync.Mutex
	opts   options
	path   string
	mem    memory.Memory
	file   *memory.File // nil for in-memory stores
	rc     *resource.Controller
	closed bool

	regions *region.Manager
	ids     *cell.Uint64
	content *omap.Map[Content]
	groups  *omap.Map[StudyGroup]
}

// Open opens the store file at path, creating it if it does not exist.
// Existing contents are recovered before Open returns.
func Open(ctx context.Context, path string, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	rc := newController(o)

	f, err := memory.OpenFile(o.fs, path, rc)
	if err != nil {
		err = translateError("", err)
		o.logger.LogRecovery(ctx, path, 0, 0, 0, err)
		return nil, err
	}

	s, err := newStore(ctx, o, f, rc, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// OpenInMemory creates a store backed by process memory. Its contents are
// lost on Close.
func OpenInMemory(ctx context.Context, optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	rc := newController(o)
	return newStore(ctx, o, memory.NewHeap(rc), rc, "")
}

func newController(o options) *resource.Controller {
	return resource.NewController(resource.Config{
		AddressSpaceLimitBytes: o.maxAddressSpace,
		IOLimitBytesPerSec:     o.backupRateLimit,
	})
}

func newStore(ctx context.Context, o options, mem memory.Memory, rc *resource.Controller, path string) (*Store, error) {
	s := &Store{
		opts: o,
		path: path,
		mem:  mem,
		rc:   rc,
	}

	if err := s.recover(); err != nil {
		err = translateError("", err)
		o.logger.LogRecovery(ctx, path, 0, 0, 0, err)
		return nil, err
	}

	o.logger.LogRecovery(ctx, path, s.content.Len(), s.groups.Len(), s.ids.Get(), nil)
	return s, nil
}

func (s *Store) recover() error {
	regions, err := region.NewManager(s.mem, s.opts.bucketPages)
	if err != nil {
		return err
	}

	counter, err := regions.Open(RegionIDCounter)
	if err != nil {
		return err
	}
	ids, err := cell.Init(counter, 0)
	if err != nil {
		return err
	}

	contentRegion, err := regions.Open(RegionContent)
	if err != nil {
		return err
	}
	content, err := omap.Open[Content](contentRegion, s.opts.codec, MaxRecordSize)
	if err != nil {
		return err
	}

	groupRegion, err := regions.Open(RegionStudyGroups)
	if err != nil {
		return err
	}
	groups, err := omap.Open[StudyGroup](groupRegion, s.opts.codec, MaxRecordSize)
	if err != nil {
		return err
	}

	s.regions, s.ids, s.content, s.groups = regions, ids, content, groups
	return s.sync()
}

// Close flushes and releases the store. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.file == nil {
		return nil
	}

	err := s.file.Sync()
	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return translateError("", err)
}

// Path returns the backing file path, or "" for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Stats describes the store's collections and address space usage.
type Stats struct {
	Path              string       `json:"path,omitempty"`
	NextID            uint64       `json:"next_id"`
	Content           uint64       `json:"content"`
	StudyGroups       uint64       `json:"study_groups"`
	Codec             string       `json:"codec"`
	AddressSpaceBytes uint64       `json:"address_space_bytes"`
	Regions           region.Stats `json:"regions"`
}

// Stats returns a snapshot of the store's state.
func (s *Store) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Stats{}, ErrClosed
	}

	return Stats{
		Path:              s.path,
		NextID:            s.ids.Get(),
		Content:           s.content.Len(),
		StudyGroups:       s.groups.Len(),
		Codec:             s.opts.codec.Name(),
		AddressSpaceBytes: memory.Bytes(s.mem),
		Regions:           s.regions.Stats(),
	}, nil
}

// now returns the current time in Unix nanoseconds.
func (s *Store) now() uint64 {
	ns := s.opts.clock().UnixNano()
	if ns < 0 {
		return 0
	}
	return uint64(ns)
}

func (s *Store) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// checkSize rejects records whose encoding would not fit a map slot.
func (s *Store) checkSize(c Collection, v any) error {
	_, err := codec.MarshalBounded(s.opts.codec, v, MaxRecordSize)
	return translateError(c, err)
}

func (s *Store) sync() error {
	if !s.opts.syncWrites {
		return nil
	}
	return memory.Sync(s.mem)
}
