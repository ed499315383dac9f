// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wraps a [tickhttp.App] with process level behaviour.
package app

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/z5labs/tickhttp"
	"github.com/z5labs/tickhttp/internal/try"
	"github.com/z5labs/tickhttp/lifecycle"
)

// Recover turns a panic inside app into a [try.PanicError].
func Recover(app tickhttp.App) tickhttp.App {
	return tickhttp.AppFunc(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications cancels the context given to app once any of
// signals is received.
func WithSignalNotifications(app tickhttp.App, signals ...os.Signal) tickhttp.App {
	return tickhttp.AppFunc(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// PostRun runs hook after app returns, even if it panics. The hook is
// given a context which is not cancelled along with app's.
func PostRun(app tickhttp.App, hook lifecycle.Hook) tickhttp.App {
	return tickhttp.AppFunc(func(ctx context.Context) (err error) {
		defer runPostRunHook(ctx, hook, &err)
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithLifecycle runs app with a [lifecycle.Context] in its context and
// afterwards runs every post-run hook registered on it.
func WithLifecycle(app tickhttp.App) tickhttp.App {
	return tickhttp.AppFunc(func(ctx context.Context) (err error) {
		var lc lifecycle.Context
		defer func() {
			runPostRunHook(ctx, lc.PostRun(), &err)
		}()
		defer try.Recover(&err)

		return app.Run(lifecycle.NewContext(ctx, &lc))
	})
}

func runPostRunHook(ctx context.Context, hook lifecycle.Hook, err *error) {
	if hook == nil {
		return
	}

	hookErr := hook.Run(context.WithoutCancel(ctx))

	// errors.Join will not return an error if both
	// *err and hookErr are nil.
	*err = errors.Join(*err, hookErr)
}
