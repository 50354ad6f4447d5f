// Package workers runs independent valuation tasks on a fixed set of goroutines.
package workers

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"options-strategist/internal/errors"
)

// Pool manages a fixed number of goroutines fed from a buffered queue.
type Pool struct {
	workers int
	tasks   chan func()
	wg      sync.WaitGroup

	mu      sync.RWMutex
	running bool

	submitted atomic.Uint64
	done      atomic.Uint64
}

// Stats contains pool statistics.
type Stats struct {
	Workers   int    `json:"workers"`
	Running   bool   `json:"running"`
	Submitted uint64 `json:"submitted"`
	Done      uint64 `json:"done"`
	Queued    int    `json:"queued"`
}

// New creates a pool with the given number of workers.
// If workers is 0 or less, it defaults to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan func(), workers*16),
	}
}

// Start launches the workers. Calling Start on a running pool does nothing.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
		p.done.Add(1)
	}
}

// Submit queues a task, blocking while the queue is full. It fails with
// ErrPoolStopped when the pool is not running, or with the context error.
func (p *Pool) Submit(ctx context.Context, task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running {
		return errors.ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		p.submitted.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop closes the queue and waits for every queued task to finish.
// A stopped pool cannot be restarted.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Stats returns pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	running := p.running
	p.mu.RUnlock()
	return Stats{
		Workers:   p.workers,
		Running:   running,
		Submitted: p.submitted.Load(),
		Done:      p.done.Load(),
		Queued:    len(p.tasks),
	}
}

// Map applies fn to every item on the pool and returns the results in input
// order. When a submission fails, Map waits for the tasks already queued and
// returns the error with a partial result.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(T) R) ([]R, error) {
	results := make([]R, len(items))
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		err := p.Submit(ctx, func() {
			defer wg.Done()
			results[i] = fn(items[i])
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return results, err
		}
	}

	wg.Wait()
	return results, nil
}
