// Package resource governs the store's finite resources.
//
//   - Address space: a hard budget on how far the backing file may grow
//     (non-blocking, fail-fast). Exhaustion is fatal for the growing region.
//   - IO: a token bucket throttling backup and restore streams so bulk copies
//     do not starve foreground operations.
//
// Usage:
//
//	rc := resource.NewController(resource.Config{
//	    AddressSpaceLimitBytes: 1 << 30,
//	    IOLimitBytesPerSec:     64 << 20,
//	})
//
//	if err := rc.AcquireSpace(pageBytes); err != nil {
//	    // ErrAddressSpaceExceeded
//	}
//
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
