// Package async provides a typed handle for a value that is still being computed.
package async

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/panics"
)

// PanicError reports a panic recovered from the function behind a Deferred.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Deferred is a not-yet-complete computation of T.
type Deferred[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn on its own goroutine and returns its handle immediately.
// ctx is handed to fn; cancelling it is how callers abandon the work.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		var pc panics.Catcher
		pc.Try(func() {
			d.value, d.err = fn(ctx)
		})
		if r := pc.Recovered(); r != nil {
			var zero T
			d.value = zero
			d.err = &PanicError{Value: r.Value, Stack: r.Stack}
		}
	}()
	return d
}

// Done is closed once the result is available.
func (d *Deferred[T]) Done() <-chan struct{} { return d.done }

// Await blocks until the result is available or ctx is done. Once the result
// is available every call returns the same value and error.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	default:
	}
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
