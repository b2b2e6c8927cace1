package calculation

import (
	"context"
	"sync"
)

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Each worker gets its own process function from the factory, so workers can
// keep private state such as a partial aggregate without locking.
type workerPool[T any] struct {
	queue chan T
	wg    sync.WaitGroup

	errOnce sync.Once
	err     error
}

// newWorkerPool creates and starts a pool with n goroutines and queue capacity depth.
func newWorkerPool[T any](ctx context.Context, n, depth int, factory func(worker int) func(context.Context, T) error) *workerPool[T] {
	if n < 1 {
		n = 1
	}
	if depth < 0 {
		depth = 0
	}
	p := &workerPool[T]{queue: make(chan T, depth)}
	for i := 0; i < n; i++ {
		process := factory(i)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, process)
		}()
	}
	return p
}

func (p *workerPool[T]) run(ctx context.Context, process func(context.Context, T) error) {
	for {
		select {
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			if err := process(ctx, t); err != nil {
				p.errOnce.Do(func() { p.err = err })
			}
		case <-ctx.Done():
			return
		}
	}
}

// Submit enqueues a job, blocking while the queue is full. It returns false
// if ctx is done first.
func (p *workerPool[T]) Submit(ctx context.Context, t T) bool {
	select {
	case p.queue <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain closes the queue, waits for all workers to finish and returns the
// first processing error.
func (p *workerPool[T]) Drain() error {
	close(p.queue)
	p.wg.Wait()
	return p.err
}

// QueueLen returns how many jobs are currently queued.
func (p *workerPool[T]) QueueLen() int {
	return len(p.queue)
}

// QueueCap returns the total queue capacity.
func (p *workerPool[T]) QueueCap() int {
	return cap(p.queue)
}
