package task

import (
	"context"
	"sync"
)

// Queue is a Poster that holds deliveries until its owner runs them.
// It suits callers that own the event loop themselves, such as tests that
// need to apply outcomes in a chosen order.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	arrived chan struct{}
}

func NewQueue() *Queue {
	return &Queue{arrived: make(chan struct{}, 1)}
}

func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()

	select {
	case q.arrived <- struct{}{}:
	default:
	}
}

// Len returns the number of queued deliveries
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush removes and returns the queued deliveries in arrival order
func (q *Queue) Flush() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	fns := q.pending
	q.pending = nil
	return fns
}

// Drain runs the queued deliveries in arrival order and returns how many ran.
// Deliveries posted while draining are left for the next call.
func (q *Queue) Drain() int {
	fns := q.Flush()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// Await blocks until at least n deliveries are queued
func (q *Queue) Await(ctx context.Context, n int) error {
	for {
		if q.Len() >= n {
			return nil
		}
		select {
		case <-q.arrived:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
