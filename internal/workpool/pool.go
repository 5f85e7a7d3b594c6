// Package workpool provides the fixed-size worker pool shared by the parallel
// phases of an audit run.
//
// Tasks are plain funcs pushed onto a channel and picked up by a fixed number
// of long-lived workers. Code running on a worker must never wait for another
// task of the same pool: with every worker blocked, nothing would drain the
// queue. Fork-join callers therefore wait from their own goroutines and only
// hand leaf work to the pool.
package workpool

import (
	"context"
	"runtime"
	"sync"

	"github.com/specialistvlad/orgaudit/internal/ctxlog"
)

// Pool is a fixed set of workers draining a shared task queue.
type Pool struct {
	tasks     chan func()
	size      int
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a pool with size workers. A size below 1 means one worker per
// available CPU.
func New(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		tasks: make(chan func(), size),
		size:  size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(ctx, i)
	}
	ctxlog.FromContext(ctx).Debug("Worker pool started.", "workers", size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Go queues fn for execution. It blocks while the queue is full.
func (p *Pool) Go(fn func()) {
	p.tasks <- fn
}

// Close stops accepting work and waits for queued tasks to finish.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
}

// worker is the processing loop for a single worker.
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)
	for fn := range p.tasks {
		fn()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// Do runs fn on the pool and waits for its result. It must not be called
// from a task already running on p.
func Do[T any](p *Pool, fn func() T) T {
	done := make(chan T, 1)
	p.Go(func() { done <- fn() })
	return <-done
}

// ForEach splits items into one contiguous chunk per worker, runs fn on every
// item and waits for all chunks. fn receives the chunk index so callers can
// write per-chunk results without locking.
func ForEach[T any](p *Pool, items []T, fn func(chunk int, item T)) {
	chunks := Chunks(len(items), p.size)
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for i, c := range chunks {
		p.Go(func() {
			defer wg.Done()
			for _, item := range items[c.Start:c.End] {
				fn(i, item)
			}
		})
	}
	wg.Wait()
}

// Range is a half-open [Start, End) interval of indexes.
type Range struct {
	Start, End int
}

// Chunks divides n items into at most parts contiguous, non-empty ranges of
// near-equal size.
func Chunks(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	out := make([]Range, 0, parts)
	size, rem := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		end := start + size
		if i < rem {
			end++
		}
		out = append(out, Range{Start: start, End: end})
		start = end
	}
	return out
}
