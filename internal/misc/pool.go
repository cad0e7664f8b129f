package misc

import "context"

// BoundedPool is a fixed-size pool of reusable values backed by a buffered channel.
// Acquire blocks while every value is checked out.
type BoundedPool[T any] struct {
	items chan T
}

// NewBoundedPool creates a pool pre-populated with size values produced by newFn.
func NewBoundedPool[T any](size int, newFn func() T) *BoundedPool[T] {
	if size < 1 {
		size = 1
	}
	p := &BoundedPool[T]{items: make(chan T, size)}
	for range size {
		p.items <- newFn()
	}
	return p
}

// Acquire takes a value from the pool, waiting until one is released or ctx is done.
func (p *BoundedPool[T]) Acquire(ctx context.Context) (T, error) {
	select {
	case v := <-p.items:
		return v, nil
	default:
	}
	select {
	case v := <-p.items:
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Release returns v to the pool. Releasing more values than the pool holds is a bug and panics.
func (p *BoundedPool[T]) Release(v T) {
	select {
	case p.items <- v:
	default:
		panic("misc: release into a full pool")
	}
}

// Do runs fn with a pooled value and always releases it, even if fn panics.
func (p *BoundedPool[T]) Do(ctx context.Context, fn func(T)) error {
	v, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(v)
	fn(v)
	return nil
}

// Cap is the fixed pool size.
func (p *BoundedPool[T]) Cap() int {
	return cap(p.items)
}

// Idle is the number of values currently available.
func (p *BoundedPool[T]) Idle() int {
	return len(p.items)
}
