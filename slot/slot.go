// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slot provides a single item mailbox shared by exactly two parties.
//
// A slot holds zero or one value. The producing party overwrites it with
// [Producer.Set] and the consuming party checks it with [Consumer.Has] before
// moving the value out with [Consumer.Take]. Writes are last-write-wins; the
// protocol built on top of a slot is responsible for never setting a second
// value before the first one was taken.
package slot

import (
	"context"
	"fmt"
	"sync"
)

type cell[T any] struct {
	mu    sync.Mutex
	value T
	full  bool

	// notify carries at most one pending wake up for Consumer.Wait.
	notify chan struct{}
}

// New returns the two ends of a new, empty slot.
func New[T any]() (Producer[T], Consumer[T]) {
	c := &cell[T]{
		notify: make(chan struct{}, 1),
	}
	return Producer[T]{c: c}, Consumer[T]{c: c}
}

// Producer is the writing end of a slot.
type Producer[T any] struct {
	c *cell[T]
}

// Set stores v, replacing any value which was not yet taken. It never blocks.
func (p Producer[T]) Set(v T) {
	p.c.mu.Lock()
	p.c.value = v
	p.c.full = true
	p.c.mu.Unlock()

	select {
	case p.c.notify <- struct{}{}:
	default:
	}
}

// Clear empties the slot.
func (p Producer[T]) Clear() {
	var zero T

	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	p.c.value = zero
	p.c.full = false
}

// Consumer is the reading end of a slot.
type Consumer[T any] struct {
	c *cell[T]
}

// Has reports whether the slot currently holds a value.
func (c Consumer[T]) Has() bool {
	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	return c.c.full
}

// EmptyError is the panic value of [Consumer.Take] on an empty slot.
// It signals a protocol violation by the caller, not a recoverable condition.
type EmptyError struct {
	Type string
}

// Error implements the [builtin.error] interface.
func (e EmptyError) Error() string {
	return fmt.Sprintf("slot: take on empty slot of %s; check Has first", e.Type)
}

// Take moves the value out of the slot, leaving it empty.
// Take panics with an [EmptyError] if the slot is empty.
func (c Consumer[T]) Take() T {
	var zero T

	c.c.mu.Lock()
	defer c.c.mu.Unlock()
	if !c.c.full {
		panic(EmptyError{Type: fmt.Sprintf("%T", zero)})
	}
	v := c.c.value
	c.c.value = zero
	c.c.full = false
	return v
}

// Wait blocks until the slot holds a value or ctx is done. It does not
// consume the value.
func (c Consumer[T]) Wait(ctx context.Context) error {
	for {
		if c.Has() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.c.notify:
		}
	}
}
