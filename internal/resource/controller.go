package resource

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrAddressSpaceExceeded is returned when a reservation would exceed the
// configured address-space budget.
var ErrAddressSpaceExceeded = errors.New("address space limit exceeded")

// Config holds resource limits.
type Config struct {
	// AddressSpaceLimitBytes is the hard limit for the backing address space.
	// If 0, no hard limit is enforced (only tracking).
	AddressSpaceLimitBytes int64

	// IOLimitBytesPerSec is the maximum throughput for backup and restore streams.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller governs address-space growth and bulk IO.
type Controller struct {
	cfg Config

	spaceSem  *semaphore.Weighted // nil if unlimited
	spaceUsed atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.AddressSpaceLimitBytes > 0 {
		c.spaceSem = semaphore.NewWeighted(cfg.AddressSpaceLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireSpace reserves bytes of address space.
// Returns ErrAddressSpaceExceeded if the limit would be exceeded.
// Non-blocking: exhaustion is final for the caller.
func (c *Controller) AcquireSpace(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.spaceSem != nil {
		if !c.spaceSem.TryAcquire(bytes) {
			return ErrAddressSpaceExceeded
		}
	}

	c.spaceUsed.Add(bytes)
	return nil
}

// ReleaseSpace returns previously reserved address space.
func (c *Controller) ReleaseSpace(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.spaceSem != nil {
		c.spaceSem.Release(bytes)
	}
	c.spaceUsed.Add(-bytes)
}

// SpaceUsage returns the reserved address space in bytes.
func (c *Controller) SpaceUsage() int64 {
	if c == nil {
		return 0
	}
	return c.spaceUsed.Load()
}

// SpaceLimit returns the configured address-space limit in bytes (0 if unlimited).
func (c *Controller) SpaceLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.AddressSpaceLimitBytes
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}

// TryAcquireIO attempts to acquire IO tokens without blocking.
func (c *Controller) TryAcquireIO(bytes int) bool {
	if c == nil || c.ioLimiter == nil {
		return true
	}
	return c.ioLimiter.AllowN(time.Now(), bytes)
}
