// Package task runs request/response units off the interaction loop and
// delivers their outcomes back onto it.
//
// A unit's Start runs on a worker goroutine. OnResponse and OnFailure run on
// the interaction context supplied to the Dispatcher, and only while the
// unit's guard reports it live. Nothing in this package orders units with
// respect to each other.
package task

import "context"

// Guard reports whether the consumer of a result still wants it.
// It is evaluated on the interaction context at delivery time.
type Guard interface {
	IsLive() bool
}

// GuardFunc adapts a function to a Guard
type GuardFunc func() bool

func (f GuardFunc) IsLive() bool { return f() }

// Always is a Guard that never expires
var Always Guard = GuardFunc(func() bool { return true })

// Unit is a single request/response exchange.
type Unit[T any] interface {
	Guard

	// Start performs the work. It runs off the interaction context and must
	// not touch state owned by it.
	Start(ctx context.Context) (T, error)

	// OnResponse consumes a successful result on the interaction context
	OnResponse(T)

	// OnFailure consumes a failed result on the interaction context
	OnFailure(error)
}

// Func builds a Unit from closures. Nil callbacks are ignored and a nil
// Guard means Always.
type Func[T any] struct {
	Name     string
	Guard    Guard
	Run      func(ctx context.Context) (T, error)
	Response func(T)
	Failure  func(error)
}

func (f Func[T]) IsLive() bool {
	if f.Guard == nil {
		return true
	}
	return f.Guard.IsLive()
}

func (f Func[T]) Start(ctx context.Context) (T, error) { return f.Run(ctx) }

func (f Func[T]) OnResponse(v T) {
	if f.Response != nil {
		f.Response(v)
	}
}

func (f Func[T]) OnFailure(err error) {
	if f.Failure != nil {
		f.Failure(err)
	}
}

func (f Func[T]) UnitName() string { return f.Name }
