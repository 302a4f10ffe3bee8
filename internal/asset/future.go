// Package asset loads textures and models off the frame goroutine and hands
// the results back through a Dispatcher, so every scene mutation still
// happens on the engine loop.
package asset

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is what Wait returns for a cancelled Future.
var ErrCancelled = errors.New("asset load cancelled")

// Dispatcher runs fn on the engine loop. Post reports false when the loop is
// gone, in which case fn never runs.
type Dispatcher interface {
	Post(fn func()) bool
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(fn func()) bool

func (d DispatchFunc) Post(fn func()) bool { return d(fn) }

// Inline runs callbacks immediately on the resolving goroutine.
var Inline Dispatcher = DispatchFunc(func(fn func()) bool { fn(); return true })

// Future is the pending result of an async load. Callbacks registered with
// Then run on the dispatcher, at most once, and never after Cancel.
type Future[T any] struct {
	disp Dispatcher

	mu        sync.Mutex
	resolved  bool
	cancelled bool
	val       T
	err       error
	ok        func(T)
	fail      func(error)
	done      chan struct{}
}

func newFuture[T any](d Dispatcher) *Future[T] {
	if d == nil {
		d = Inline
	}
	return &Future[T]{disp: d, done: make(chan struct{})}
}

// Go runs fn on a new goroutine and resolves the returned Future with its
// result. wg, if set, tracks the goroutine.
func Go[T any](d Dispatcher, wg *sync.WaitGroup, fn func() (T, error)) *Future[T] {
	f := newFuture[T](d)
	if wg != nil {
		wg.Add(1)
	}
	go func() {
		if wg != nil {
			defer wg.Done()
		}
		v, err := fn()
		f.resolve(v, err)
	}()
	return f
}

// Then registers the success and failure callbacks. Either may be nil. Only
// the first call to Then has any effect.
func (f *Future[T]) Then(ok func(T), fail func(error)) *Future[T] {
	f.mu.Lock()
	if f.ok != nil || f.fail != nil {
		f.mu.Unlock()
		return f
	}
	if ok == nil {
		ok = func(T) {}
	}
	if fail == nil {
		fail = func(error) {}
	}
	f.ok, f.fail = ok, fail
	ready := f.resolved && !f.cancelled
	f.mu.Unlock()
	if ready {
		f.dispatch()
	}
	return f
}

// Cancel drops the result. Callbacks that have not started never will.
func (f *Future[T]) Cancel() {
	f.mu.Lock()
	f.cancelled = true
	f.mu.Unlock()
}

func (f *Future[T]) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Wait blocks until the load finishes or ctx ends.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelled {
		var zero T
		return zero, ErrCancelled
	}
	return f.val, f.err
}

func (f *Future[T]) resolve(v T, err error) {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return
	}
	f.resolved = true
	f.val, f.err = v, err
	ready := f.ok != nil && !f.cancelled
	f.mu.Unlock()
	if ready {
		f.dispatch()
	}
	close(f.done)
}

func (f *Future[T]) dispatch() {
	f.disp.Post(f.deliver)
}

// deliver runs on the loop. Cancel may have happened after dispatch.
func (f *Future[T]) deliver() {
	f.mu.Lock()
	if f.cancelled {
		f.mu.Unlock()
		return
	}
	ok, fail, v, err := f.ok, f.fail, f.val, f.err
	f.mu.Unlock()
	if err != nil {
		fail(err)
		return
	}
	ok(v)
}
