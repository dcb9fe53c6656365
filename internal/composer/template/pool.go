package template

import "context"

// pool is a counting semaphore of worker slots shared by all Compose calls.
type pool struct {
	slots chan struct{}
}

func newPool(size int) *pool {
	if size < 1 {
		size = 1
	}
	return &pool{slots: make(chan struct{}, size)}
}

// acquire blocks until a slot is free or ctx is done.
func (p *pool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pool) release() {
	<-p.slots
}
