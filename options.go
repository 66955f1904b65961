package linguastore

import (
	"log/slog"
	"time"

	"github.com/hupe1980/linguastore/codec"
	"github.com/hupe1980/linguastore/internal/fs"
	"github.com/hupe1980/linguastore/internal/region"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	clock            func() time.Time
	syncWrites       bool
	bucketPages      uint16
	maxAddressSpace  int64
	backupRateLimit  int64
	fs               fs.FileSystem
}

// Option configures Open and OpenInMemory.
type Option func(*options)

// WithCodec configures the record codec of a new store.
//
// The codec name is persisted; reopening a store with another codec fails
// with ErrLayoutMismatch. If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &linguastore.BasicMetricsCollector{}
//	st, _ := linguastore.Open(ctx, "learn.db", linguastore.WithMetricsCollector(metrics))
//	// ... use st ...
//	stats := metrics.GetStats()
//	fmt.Printf("Creates: %d, Avg latency: %dns\n", stats.CreateCount, stats.CreateAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithSyncWrites controls whether every mutating operation flushes the
// backing file before returning. Enabled by default.
func WithSyncWrites(enabled bool) Option {
	return func(o *options) {
		o.syncWrites = enabled
	}
}

// WithBucketPages sets the bucket size, in 64 KiB pages, of a new store.
// Existing stores keep the bucket size they were created with.
func WithBucketPages(pages uint16) Option {
	return func(o *options) {
		o.bucketPages = pages
	}
}

// WithMaxAddressSpace caps the size of the backing address space in bytes.
// Growth beyond the cap fails with ErrExhausted. Zero means unlimited.
func WithMaxAddressSpace(bytes int64) Option {
	return func(o *options) {
		o.maxAddressSpace = bytes
	}
}

// WithBackupRateLimit throttles backup and restore streams to bytesPerSec.
// Zero means unlimited.
func WithBackupRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.backupRateLimit = bytesPerSec
	}
}

// WithFileSystem sets the file system used by Open and Restore.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		clock:            time.Now,
		syncWrites:       true,
		bucketPages:      region.DefaultBucketPages,
		fs:               fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
