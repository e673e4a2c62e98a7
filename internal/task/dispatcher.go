package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrPanicked wraps a panic recovered from a unit's Start
	ErrPanicked = errors.New("task panicked")

	// ErrClosed reports work submitted to a closed dispatcher
	ErrClosed = errors.New("dispatcher closed")
)

// Poster hands a function to the interaction context. Implementations must
// run posted functions one at a time, on a single logical thread.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts a function to a Poster
type PosterFunc func(fn func())

func (f PosterFunc) Post(fn func()) { f(fn) }

// Named is implemented by units that want a readable name in logs
type Named interface {
	UnitName() string
}

// Options configures a Dispatcher
type Options struct {
	MaxWorkers int // Concurrent Start calls; defaults to the CPU count
	Logger     *slog.Logger
}

// Dispatcher runs units on worker goroutines and marshals outcomes back
// through a Poster.
type Dispatcher struct {
	post   Poster
	sem    *semaphore.Weighted
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	ledger map[uuid.UUID]*entry
	closed bool
}

type entry struct {
	name      string
	submitted time.Time
	cancel    context.CancelFunc
	cancelled bool
}

// New creates a Dispatcher delivering through post
func New(post Poster, opts Options) *Dispatcher {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.NumCPU()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		post:   post,
		sem:    semaphore.NewWeighted(int64(opts.MaxWorkers)),
		logger: opts.Logger,
		ctx:    ctx,
		cancel: cancel,
		ledger: make(map[uuid.UUID]*entry),
	}
}

// Handle identifies a submission
type Handle struct {
	id uuid.UUID
	d  *Dispatcher
}

// ID returns the submission id, or uuid.Nil for a rejected submission
func (h Handle) ID() uuid.UUID { return h.id }

// Rejected reports whether the submission was refused because the
// dispatcher was closed. A rejected unit is never delivered.
func (h Handle) Rejected() bool { return h.id == uuid.Nil }

// Cancel cancels the unit's context and drops its outcome. Cancelling a
// finished submission is a no-op.
func (h Handle) Cancel() {
	if h.d == nil {
		return
	}
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if e, ok := h.d.ledger[h.id]; ok {
		e.cancelled = true
		e.cancel()
	}
}

// Submit starts u and returns immediately. Exactly one of u.OnResponse or
// u.OnFailure is later called on the interaction context, unless the
// outcome is dropped because u is no longer live, the submission was
// cancelled, or the dispatcher was closed.
func Submit[T any](d *Dispatcher, u Unit[T]) Handle {
	name := unitName(u)
	ctx, cancel := context.WithCancel(d.ctx)
	id := uuid.New()
	e := &entry{name: name, submitted: time.Now(), cancel: cancel}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		d.logger.Debug("dispatcher closed, submission dropped", "unit", name)
		return Handle{}
	}
	d.ledger[id] = e
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer cancel()

		res, err := run(ctx, d.sem, u)
		d.post.Post(func() {
			if !d.settle(id) {
				d.logger.Debug("task cancelled, result dropped", "unit", name, "id", id)
				return
			}
			if !u.IsLive() {
				d.logger.Debug("owner gone, result dropped", "unit", name, "id", id)
				return
			}
			if err != nil {
				d.logger.Debug("task failed", "unit", name, "id", id, "error", err)
				u.OnFailure(err)
				return
			}
			u.OnResponse(res)
		})
	}()

	return Handle{id: id, d: d}
}

func run[T any](ctx context.Context, sem *semaphore.Weighted, u Unit[T]) (res T, err error) {
	if err := sem.Acquire(ctx, 1); err != nil {
		return res, err
	}
	defer sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, r)
		}
	}()
	return u.Start(ctx)
}

// settle removes the ledger entry and reports whether the outcome may be
// delivered.
func (d *Dispatcher) settle(id uuid.UUID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.ledger[id]
	if !ok {
		return false
	}
	delete(d.ledger, id)
	if e.cancelled || d.closed {
		return false
	}
	d.logger.Debug("task settled", "unit", e.name, "id", id, "elapsed", time.Since(e.submitted))
	return true
}

// InFlight returns the number of submissions not yet settled
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ledger)
}

// Wait blocks until every worker has finished and posted its outcome
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels all in-flight work. Outcomes still in transit are dropped
// and later submissions are rejected.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()
	d.cancel()
}

func unitName(u any) string {
	if n, ok := u.(Named); ok && n.UnitName() != "" {
		return n.UnitName()
	}
	return fmt.Sprintf("%T", u)
}
