// Package pool hands out reusable per-worker resources. The lock is held
// only while an item is checked out or returned, never while it is in use.
package pool

import "sync"

// Pool is a mutex-guarded free list. The zero value is not usable; call New.
type Pool[T any] struct {
	mu     sync.Mutex
	free   []T
	newFn  func() T
	resetF func(T)
	max    int

	created int
}

// Option configures a Pool.
type Option[T any] func(*Pool[T])

// WithReset registers a hook run on each item as it is returned.
func WithReset[T any](fn func(T)) Option[T] {
	return func(p *Pool[T]) { p.resetF = fn }
}

// WithMaxIdle caps how many returned items are retained. Items beyond the
// cap are handed to the discard function passed to Put.
func WithMaxIdle[T any](n int) Option[T] {
	return func(p *Pool[T]) { p.max = n }
}

// New creates a pool that builds items with newFn.
func New[T any](newFn func() T, opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{newFn: newFn}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Get checks out an idle item or builds a new one.
func (p *Pool[T]) Get() T {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		item := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return item
	}
	p.created++
	p.mu.Unlock()
	return p.newFn()
}

// Put returns an item. When the idle list is full, discard (if non-nil) is
// called with the item instead.
func (p *Pool[T]) Put(item T, discard func(T)) {
	if p.resetF != nil {
		p.resetF(item)
	}
	p.mu.Lock()
	if p.max > 0 && len(p.free) >= p.max {
		p.mu.Unlock()
		if discard != nil {
			discard(item)
		}
		return
	}
	p.free = append(p.free, item)
	p.mu.Unlock()
}

// Drain removes every idle item and passes it to fn.
func (p *Pool[T]) Drain(fn func(T)) {
	p.mu.Lock()
	free := p.free
	p.free = nil
	p.mu.Unlock()
	for _, item := range free {
		fn(item)
	}
}

// Stats reports the number of items built and currently idle.
func (p *Pool[T]) Stats() (created, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created, len(p.free)
}
