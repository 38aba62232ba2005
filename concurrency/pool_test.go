package concurrency

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachVisitsEveryIndexOnce(t *testing.T) {
	for _, size := range []int{1, 3, 16} {
		hits := make([]int32, 50)
		ForEach(context.Background(), size, len(hits), func(_ context.Context, i int) {
			atomic.AddInt32(&hits[i], 1)
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "size %d index %d", size, i)
		}
	}
}

func TestForEachBoundsParallelism(t *testing.T) {
	var running, peak int32
	ForEach(context.Background(), 2, 10, func(_ context.Context, _ int) {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&running, -1)
	})
	assert.LessOrEqual(t, peak, int32(2))
}

func TestForEachCancelledStillReportsEveryIndex(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls, cancelled int32
	ForEach(ctx, 4, 20, func(ctx context.Context, _ int) {
		atomic.AddInt32(&calls, 1)
		if ctx.Err() != nil {
			atomic.AddInt32(&cancelled, 1)
		}
	})
	assert.Equal(t, int32(20), calls)
	assert.Equal(t, int32(20), cancelled)
}

func TestWorkerPoolSubmitAfterWait(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start(context.Background())

	var done int32
	require.NoError(t, pool.Submit(context.Background(), JobFunc(func(context.Context) {
		atomic.AddInt32(&done, 1)
	})))
	pool.Wait()

	assert.Equal(t, int32(1), done)
	assert.Error(t, pool.Submit(context.Background(), JobFunc(func(context.Context) {})))
}

func TestNewWorkerPoolDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultSize(), NewWorkerPool(0).Size())
}
