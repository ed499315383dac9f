// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package lifecycle lets components register cleanup which must run
// after an app has finished, whether it succeeded or not.
package lifecycle

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// Hook is run at a lifecycle point.
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a functional implementation of [Hook].
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	errs := make([]error, 0, len(mh))
	for _, h := range mh {
		err := h.Run(ctx)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// MultiHook runs every hook in order, even if earlier ones fail, and
// joins their errors.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Context collects post-run hooks. It is safe for concurrent use.
type Context struct {
	mu       sync.Mutex
	postRuns []Hook
}

// OnPostRun registers hook to run once the app has finished.
func (c *Context) OnPostRun(hook Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postRuns = append(c.postRuns, hook)
}

// PostRun returns the registered hooks as one [Hook]. Like deferred
// calls, hooks registered last run first.
func (c *Context) PostRun() Hook {
	c.mu.Lock()
	defer c.mu.Unlock()
	hooks := slices.Clone(c.postRuns)
	slices.Reverse(hooks)
	return multiHook(hooks)
}

type key struct{}

var contextKey = &key{}

// NewContext returns a copy of parent which carries c.
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey, c)
}

// FromContext returns the [Context] carried by ctx, if any.
func FromContext(ctx context.Context) (*Context, bool) {
	lc, ok := ctx.Value(contextKey).(*Context)
	return lc, ok
}
