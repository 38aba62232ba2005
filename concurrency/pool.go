package concurrency

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Job is a unit of work run by a WorkerPool.
type Job interface {
	Execute(ctx context.Context)
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context)

// Execute runs f.
func (f JobFunc) Execute(ctx context.Context) {
	f(ctx)
}

// WorkerPool runs jobs on a fixed number of goroutines.
// Jobs own their results; the pool only schedules.
type WorkerPool struct {
	size     int
	jobQueue chan Job
	wg       sync.WaitGroup
	started  bool
	closed   bool
	mu       sync.Mutex
}

// DefaultSize is the pool size used when a non-positive size is requested.
func DefaultSize() int {
	return runtime.NumCPU()
}

// NewWorkerPool creates a pool with size workers.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = DefaultSize()
	}
	return &WorkerPool{
		size:     size,
		jobQueue: make(chan Job, size),
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *WorkerPool) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.jobQueue {
		job.Execute(ctx)
	}
}

// Submit enqueues a job, blocking while all workers are busy.
func (p *WorkerPool) Submit(ctx context.Context, job Job) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("pool is closed")
	}

	select {
	case p.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait closes the queue and blocks until every submitted job has finished.
func (p *WorkerPool) Wait() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// ForEach runs fn(ctx, i) for i in [0, n) on at most size goroutines and
// returns once all calls have returned. Indices are handed out in order, so
// fn can write into a pre-sized slice without locking.
// When ctx is cancelled no further indices are scheduled; fn is still called
// for them with the cancelled ctx so callers can record the skip.
func ForEach(ctx context.Context, size, n int, fn func(ctx context.Context, i int)) {
	if n <= 0 {
		return
	}
	if size <= 0 {
		size = DefaultSize()
	}
	if size == 1 || n == 1 {
		for i := 0; i < n; i++ {
			fn(ctx, i)
		}
		return
	}

	pool := NewWorkerPool(min(size, n))
	pool.Start(ctx)
	for i := 0; i < n; i++ {
		i := i // per-iteration copy for the closure (go < 1.22 loop semantics)
		if err := pool.Submit(ctx, JobFunc(func(ctx context.Context) { fn(ctx, i) })); err != nil {
			// cancelled: report the rest without scheduling them
			for j := i; j < n; j++ {
				fn(ctx, j)
			}
			break
		}
	}
	pool.Wait()
}
