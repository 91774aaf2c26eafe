package resource

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxCPUWorkers is the number of CPU-bound jobs that may run at once.
	// If 0, defaults to runtime.GOMAXPROCS(0).
	MaxCPUWorkers int64

	// RequestsPerSecond paces round-trips to the backing table.
	// If 0, unlimited.
	RequestsPerSecond float64

	// RequestBurst is the limiter burst. If 0, defaults to
	// max(1, RequestsPerSecond).
	RequestBurst int
}

// Controller bounds CPU-bound work and paces backend requests.
//
// A nil *Controller is valid and imposes no limits.
type Controller struct {
	cfg Config

	cpuSem      *semaphore.Weighted
	cpuInFlight atomic.Int64

	limiter  *rate.Limiter
	requests atomic.Int64
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxCPUWorkers <= 0 {
		cfg.MaxCPUWorkers = int64(runtime.GOMAXPROCS(0))
	}

	c := &Controller{
		cfg:    cfg,
		cpuSem: semaphore.NewWeighted(cfg.MaxCPUWorkers),
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.RequestBurst
		if burst <= 0 {
			burst = max(1, int(cfg.RequestsPerSecond))
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return c
}

// AcquireCPU reserves a CPU worker slot. Blocks until a slot frees up or
// ctx is done.
func (c *Controller) AcquireCPU(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.cpuSem.Acquire(ctx, 1); err != nil {
		return err
	}
	c.cpuInFlight.Add(1)
	return nil
}

// TryAcquireCPU reserves a CPU worker slot without blocking.
func (c *Controller) TryAcquireCPU() bool {
	if c == nil {
		return true
	}
	if !c.cpuSem.TryAcquire(1) {
		return false
	}
	c.cpuInFlight.Add(1)
	return true
}

// ReleaseCPU releases a CPU worker slot.
func (c *Controller) ReleaseCPU() {
	if c == nil {
		return
	}
	c.cpuInFlight.Add(-1)
	c.cpuSem.Release(1)
}

// CPUInFlight returns the number of occupied CPU worker slots.
func (c *Controller) CPUInFlight() int64 {
	if c == nil {
		return 0
	}
	return c.cpuInFlight.Load()
}

// AcquireRequest waits until the pacing budget allows one more backend request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	c.requests.Add(1)
	return nil
}

// Requests returns the number of backend requests admitted so far.
func (c *Controller) Requests() int64 {
	if c == nil {
		return 0
	}
	return c.requests.Load()
}
