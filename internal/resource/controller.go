package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when an allocation would exceed the
// configured memory budget.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Limits holds the resource budget of one or more indexes.
type Limits struct {
	// MemoryBytes caps the vector and graph storage an index may allocate.
	// If 0, usage is only tracked.
	MemoryBytes int64 `yaml:"memory_bytes"`

	// BackgroundWorkers bounds concurrent consolidation passes.
	// If 0, defaults to 1.
	BackgroundWorkers int64 `yaml:"background_workers"`

	// IOBytesPerSec throttles snapshot writes. If 0, unlimited.
	IOBytesPerSec int64 `yaml:"io_bytes_per_sec"`
}

// Controller enforces Limits. A nil *Controller imposes no limits, so
// callers never need to branch on whether one was configured.
type Controller struct {
	limits Limits

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	bgSem *semaphore.Weighted

	ioLimiter *rate.Limiter
	ioBurst   int
}

// NewController creates a controller for the given limits.
func NewController(l Limits) *Controller {
	if l.BackgroundWorkers <= 0 {
		l.BackgroundWorkers = 1
	}

	c := &Controller{
		limits: l,
		bgSem:  semaphore.NewWeighted(l.BackgroundWorkers),
	}

	if l.MemoryBytes > 0 {
		c.memSem = semaphore.NewWeighted(l.MemoryBytes)
	}

	if l.IOBytesPerSec > 0 {
		c.ioBurst = int(l.IOBytesPerSec)
		c.ioLimiter = rate.NewLimiter(rate.Limit(l.IOBytesPerSec), c.ioBurst)
	}

	return c
}

// Limits returns the configured limits.
func (c *Controller) Limits() Limits {
	if c == nil {
		return Limits{}
	}
	return c.limits
}

// AcquireMemory reserves bytes without blocking.
// Returns ErrMemoryLimitExceeded if the budget would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return fmt.Errorf("%w: requested %d bytes, %d of %d in use",
			ErrMemoryLimitExceeded, bytes, c.memUsed.Load(), c.limits.MemoryBytes)
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns bytes previously reserved with AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the bytes currently reserved.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireBackground reserves a background worker slot, blocking until one
// is free or ctx is done.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.bgSem.Acquire(ctx, 1)
}

// TryAcquireBackground reserves a background worker slot without blocking.
func (c *Controller) TryAcquireBackground() bool {
	if c == nil {
		return true
	}
	return c.bgSem.TryAcquire(1)
}

// ReleaseBackground releases a background worker slot.
func (c *Controller) ReleaseBackground() {
	if c == nil {
		return
	}
	c.bgSem.Release(1)
}

// AcquireIO waits until the IO budget allows n bytes. Requests larger than
// one second of budget are paid in burst-sized installments.
func (c *Controller) AcquireIO(ctx context.Context, n int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	for n > 0 {
		chunk := min(n, c.ioBurst)
		if err := c.ioLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
