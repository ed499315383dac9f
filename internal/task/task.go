// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package task runs functions in dedicated goroutines and exposes
// a completion handle which can be probed without blocking.
package task

import (
	"context"

	"github.com/z5labs/tickhttp/internal/try"
)

// Func is the unit of work executed by a [Task].
type Func func(context.Context) error

// Task is the completion handle of a [Func] running in its own goroutine.
type Task struct {
	done chan struct{}
	err  error
}

// Go starts f in a new goroutine and returns its handle. A panic inside f
// is recovered and reported as a [try.PanicError] result.
func Go(ctx context.Context, f Func) *Task {
	t := &Task{
		done: make(chan struct{}),
	}
	go t.run(ctx, f)
	return t
}

func (t *Task) run(ctx context.Context, f Func) {
	defer close(t.done)

	t.err = call(ctx, f)
}

func call(ctx context.Context, f Func) (err error) {
	defer try.Recover(&err)

	return f(ctx)
}

// Poll reports whether the task has finished and, if so, its result.
// Poll never blocks.
func (t *Task) Poll() (done bool, err error) {
	select {
	case <-t.done:
		return true, t.err
	default:
		return false, nil
	}
}

// Done returns a channel which is closed once the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is cancelled.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}
