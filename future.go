/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"
	"sync"
)

// Executor runs completion callbacks.
type Executor interface {
	Execute(fn func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// Inline runs callbacks on the goroutine that completed the operation.
var Inline Executor = ExecutorFunc(func(fn func()) { fn() })

// SerialExecutor queues callbacks and runs them one at a time on the
// goroutine that calls Run, such as an application's main loop.
type SerialExecutor struct {
	queue chan func()
}

// NewSerialExecutor creates a SerialExecutor holding up to buffer pending
// callbacks. Execute blocks while the queue is full.
func NewSerialExecutor(buffer int) *SerialExecutor {
	return &SerialExecutor{queue: make(chan func(), buffer)}
}

// Execute queues fn.
func (e *SerialExecutor) Execute(fn func()) {
	e.queue <- fn
}

// Run executes queued callbacks until ctx is done.
func (e *SerialExecutor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-e.queue:
			fn()
		}
	}
}

// RunPending executes the callbacks queued so far and returns how many ran.
func (e *SerialExecutor) RunPending() int {
	n := 0
	for {
		select {
		case fn := <-e.queue:
			fn()
			n++
		default:
			return n
		}
	}
}

// Future is the result of an asynchronous store operation. It completes
// exactly once.
type Future[T any] struct {
	once     sync.Once
	done     chan struct{}
	value    T
	err      error
	executor Executor

	mu        sync.Mutex
	completed bool
	draining  bool
	callbacks []func(T, error)
}

// Async runs fn on a new goroutine and returns its Future. Callbacks
// registered with Then are delivered on the store's executor.
//
//	f := recordstore.Async(ctx, store, func(ctx context.Context) ([]Post, error) {
//	    return recordstore.GetAll[Post](ctx, store, recordstore.DefaultPartition())
//	})
//	posts, err := f.Await(ctx)
func Async[T any](ctx context.Context, s *Store, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{
		done:     make(chan struct{}),
		executor: s.executor,
	}
	go func() {
		v, err := fn(ctx)
		f.complete(v, err)
	}()
	return f
}

// complete records the result. Only the first call has an effect.
func (f *Future[T]) complete(v T, err error) bool {
	completed := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		completed = true

		f.mu.Lock()
		f.completed = true
		f.drainLocked()
		f.mu.Unlock()
	})
	return completed
}

// drainLocked starts delivering queued callbacks unless a delivery is
// already running. f.mu must be held.
func (f *Future[T]) drainLocked() {
	if !f.completed || f.draining || len(f.callbacks) == 0 {
		return
	}
	f.draining = true
	go f.drain()
}

// drain hands the queued callbacks to the executor one at a time, in
// registration order.
func (f *Future[T]) drain() {
	for {
		f.mu.Lock()
		if len(f.callbacks) == 0 {
			f.draining = false
			f.mu.Unlock()
			return
		}
		cb := f.callbacks[0]
		f.callbacks = f.callbacks[1:]
		f.mu.Unlock()

		f.executor.Execute(func() { cb(f.value, f.err) })
	}
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then delivers the result to cb on the store's executor once it is
// available. Each registered callback runs exactly once, and callbacks are
// handed to the executor in the order they were registered.
func (f *Future[T]) Then(cb func(T, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, cb)
	f.drainLocked()
}
