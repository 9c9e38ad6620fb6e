package resource

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrMemoryLimitExceeded is returned when memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64
}

// Controller manages a memory budget.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{
		cfg: cfg,
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	return c
}

// AcquireMemory attempts to reserve memory.
// Returns ErrMemoryLimitExceeded if limit would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// Reservation accumulates acquisitions so that a multi-step allocation can be
// rolled back as a whole.
type Reservation struct {
	c     *Controller
	bytes int64
}

// Reserve starts an empty reservation against c.
func (c *Controller) Reserve() *Reservation {
	return &Reservation{c: c}
}

// Acquire adds bytes to the reservation.
func (r *Reservation) Acquire(bytes int64) error {
	if err := r.c.AcquireMemory(bytes); err != nil {
		return err
	}
	if bytes > 0 {
		r.bytes += bytes
	}
	return nil
}

// Bytes returns the amount held by the reservation.
func (r *Reservation) Bytes() int64 {
	return r.bytes
}

// Rollback releases everything acquired through the reservation.
func (r *Reservation) Rollback() {
	r.c.ReleaseMemory(r.bytes)
	r.bytes = 0
}

// Commit hands the acquired bytes over to the caller; they are no longer
// released by Rollback.
func (r *Reservation) Commit() int64 {
	n := r.bytes
	r.bytes = 0
	return n
}
