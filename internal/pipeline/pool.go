package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"pagelift/internal/config"
	"pagelift/internal/domain"
)

// Pool is a fixed-capacity set of execution slots partitioned by resource
// class. The semaphore counters are the only mutable state shared across
// worker goroutines.
type Pool struct {
	sems  map[domain.ResourceClass]*semaphore.Weighted
	sizes map[domain.ResourceClass]int
}

// NewPool builds a pool from PoolConfig. Every class must have at least
// one slot.
func NewPool(cfg config.PoolConfig) (*Pool, error) {
	if cfg.CPUSlots < 1 || cfg.AcceleratorSlots < 1 {
		return nil, fmt.Errorf("%w: pool needs at least one slot per class (cpu=%d, accelerator=%d)",
			domain.ErrResourceUnavailable, cfg.CPUSlots, cfg.AcceleratorSlots)
	}
	return &Pool{
		sems: map[domain.ResourceClass]*semaphore.Weighted{
			domain.ResourceCPU:         semaphore.NewWeighted(int64(cfg.CPUSlots)),
			domain.ResourceAccelerator: semaphore.NewWeighted(int64(cfg.AcceleratorSlots)),
		},
		sizes: map[domain.ResourceClass]int{
			domain.ResourceCPU:         cfg.CPUSlots,
			domain.ResourceAccelerator: cfg.AcceleratorSlots,
		},
	}, nil
}

// Acquire blocks until a slot of the given class is available or ctx is
// done.
func (p *Pool) Acquire(ctx context.Context, class domain.ResourceClass) error {
	sem, ok := p.sems[class]
	if !ok {
		return fmt.Errorf("%w: unknown resource class %q", domain.ErrResourceUnavailable, class)
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring %s slot: %w", class, err)
	}
	return nil
}

// Release returns a slot of the given class to the pool.
func (p *Pool) Release(class domain.ResourceClass) {
	if sem, ok := p.sems[class]; ok {
		sem.Release(1)
	}
}

// Size returns the configured slot count for a class.
func (p *Pool) Size(class domain.ResourceClass) int {
	return p.sizes[class]
}
