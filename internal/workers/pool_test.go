package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-strategist/internal/errors"
)

func TestPoolRunsEveryTask(t *testing.T) {
	pool := New(4)
	pool.Start()

	var counter int64
	for i := 0; i < 200; i++ {
		require.NoError(t, pool.Submit(context.Background(), func() {
			atomic.AddInt64(&counter, 1)
		}))
	}
	pool.Stop()

	assert.Equal(t, int64(200), atomic.LoadInt64(&counter))
	stats := pool.Stats()
	assert.Equal(t, 4, stats.Workers)
	assert.False(t, stats.Running)
	assert.Equal(t, uint64(200), stats.Submitted)
	assert.Equal(t, uint64(200), stats.Done)
}

func TestPoolSubmitAfterStop(t *testing.T) {
	pool := New(1)
	assert.True(t, errors.Is(pool.Submit(context.Background(), func() {}), errors.ErrPoolStopped))

	pool.Start()
	pool.Stop()
	pool.Stop()
	assert.True(t, errors.Is(pool.Submit(context.Background(), func() {}), errors.ErrPoolStopped))
}

func TestPoolSubmitHonoursContext(t *testing.T) {
	pool := New(1)
	pool.Start()

	started, release := make(chan struct{}), make(chan struct{})
	// Occupy the worker, then fill the queue.
	require.NoError(t, pool.Submit(context.Background(), func() {
		close(started)
		<-release
	}))
	<-started
	for i := 0; i < cap(pool.tasks); i++ {
		require.NoError(t, pool.Submit(context.Background(), func() {}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	pool.Stop()
}

func TestMapKeepsOrder(t *testing.T) {
	pool := New(3)
	pool.Start()
	defer pool.Stop()

	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	got, err := Map(context.Background(), pool, items, func(x int) int { return x * x })
	require.NoError(t, err)
	for i, v := range got {
		assert.Equal(t, i*i, v)
	}
}

func TestMapStoppedPool(t *testing.T) {
	pool := New(2)
	_, err := Map(context.Background(), pool, []int{1, 2}, func(x int) int { return x })
	assert.True(t, errors.Is(err, errors.ErrPoolStopped))
}

func TestNewDefaultsToCPUCount(t *testing.T) {
	assert.Greater(t, New(0).Stats().Workers, 0)
}
