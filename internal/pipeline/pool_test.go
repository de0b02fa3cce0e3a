package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelift/internal/config"
	"pagelift/internal/domain"
)

func TestNewPoolRejectsEmptyClasses(t *testing.T) {
	_, err := NewPool(config.PoolConfig{CPUSlots: 0, AcceleratorSlots: 1})
	require.ErrorIs(t, err, domain.ErrResourceUnavailable)

	_, err = NewPool(config.PoolConfig{CPUSlots: 4, AcceleratorSlots: 0})
	require.ErrorIs(t, err, domain.ErrResourceUnavailable)
}

func TestPoolUnknownClass(t *testing.T) {
	pool, err := NewPool(config.PoolConfig{CPUSlots: 1, AcceleratorSlots: 1})
	require.NoError(t, err)

	err = pool.Acquire(context.Background(), domain.ResourceClass("quantum"))
	require.ErrorIs(t, err, domain.ErrResourceUnavailable)
}

// Concurrent acquisition of accelerator slots never exceeds the configured
// device count, even with more tasks in flight than slots.
func TestPoolBoundsAcceleratorConcurrency(t *testing.T) {
	const slots = 2
	const tasks = slots + 1

	pool, err := NewPool(config.PoolConfig{CPUSlots: 8, AcceleratorSlots: slots})
	require.NoError(t, err)

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < tasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, pool.Acquire(context.Background(), domain.ResourceAccelerator))
			defer pool.Release(domain.ResourceAccelerator)

			now := active.Add(1)
			for {
				old := peak.Load()
				if now <= old || peak.CompareAndSwap(old, now) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(slots))
	assert.Equal(t, slots, pool.Size(domain.ResourceAccelerator))
}

func TestPoolAcquireHonorsContext(t *testing.T) {
	pool, err := NewPool(config.PoolConfig{CPUSlots: 8, AcceleratorSlots: 1})
	require.NoError(t, err)

	require.NoError(t, pool.Acquire(context.Background(), domain.ResourceAccelerator))
	defer pool.Release(domain.ResourceAccelerator)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = pool.Acquire(ctx, domain.ResourceAccelerator)
	require.Error(t, err)
}
