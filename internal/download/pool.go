package download

import "context"

// Pool is a fixed-size set of execution slots bounding parallel page fetches.
// One pool is shared across the whole process, so every chapter's page batch
// queues onto the same worker budget.
type Pool struct {
	sem chan struct{}
}

// NewPool returns a pool with the given number of slots, minimum one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Acquire blocks until a slot is free or the context is done.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot to the pool.
func (p *Pool) Release() {
	<-p.sem
}

// Size returns the slot count.
func (p *Pool) Size() int {
	return cap(p.sem)
}
