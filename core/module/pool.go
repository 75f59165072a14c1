package module

import "github.com/sourcegraph/conc/pool"

// DefaultPoolSize bounds the number of worker goroutines shared by all
// threaded modules. It must be at least the number of loaded threaded
// modules, since each busy mailbox occupies one worker while draining.
const DefaultPoolSize = 8

// Pool is the worker pool servicing threaded module mailboxes.
type Pool struct {
	p *pool.Pool
}

// NewPool creates a pool with at most max concurrent workers.
func NewPool(max int) *Pool {
	if max <= 0 {
		max = DefaultPoolSize
	}
	return &Pool{p: pool.New().WithMaxGoroutines(max)}
}

// Submit schedules a task on a pool worker.
func (p *Pool) Submit(task func()) {
	p.p.Go(task)
}

// Wait blocks until all submitted tasks have finished. Called once at
// shutdown; the pool must not be reused afterwards.
func (p *Pool) Wait() {
	p.p.Wait()
}
