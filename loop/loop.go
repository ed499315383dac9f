// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package loop provides a minimal orchestrator which drives a
// [server.Server] from a single goroutine on a fixed interval.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/z5labs/tickhttp/pkg/noop"
	"github.com/z5labs/tickhttp/pkg/slogfield"
	"github.com/z5labs/tickhttp/server"
)

const (
	DefaultInterval        = 5 * time.Millisecond
	DefaultShutdownTimeout = 10 * time.Second
)

type options struct {
	log             *slog.Logger
	interval        time.Duration
	shutdownTimeout time.Duration
}

// Option configures a [Runtime].
type Option func(*options)

// Logger sets the logger used by the [Runtime].
func Logger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Interval sets the time between ticks. Non-positive values are ignored.
func Interval(d time.Duration) Option {
	return func(o *options) {
		if d <= 0 {
			return
		}
		o.interval = d
	}
}

// ShutdownTimeout bounds how long [Runtime.Run] waits for open
// connections to finish once it stops ticking.
func ShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = d
	}
}

// Runtime ticks a server until its context is cancelled or a tick fails.
type Runtime[S any] struct {
	log             *slog.Logger
	srv             *server.Server[S]
	state           S
	interval        time.Duration
	shutdownTimeout time.Duration
}

// New returns a [Runtime] which hands state to every tick of srv.
func New[S any](srv *server.Server[S], state S, opts ...Option) *Runtime[S] {
	o := options{
		log:             noop.Logger(),
		interval:        DefaultInterval,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Runtime[S]{
		log:             o.log,
		srv:             srv,
		state:           state,
		interval:        o.interval,
		shutdownTimeout: o.shutdownTimeout,
	}
}

// Run implements the [tickhttp.App] interface. A cancelled context is
// a clean stop. Either way the server is shut down before returning.
func (rt *Runtime[S]) Run(ctx context.Context) error {
	tickErr := rt.tick(ctx)
	if tickErr != nil {
		rt.log.ErrorContext(ctx, "tick failed", slogfield.Error(tickErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rt.shutdownTimeout)
	defer cancel()

	rt.log.InfoContext(ctx, "shutting down", slogfield.Int("connections", rt.srv.Connections()))
	err := rt.srv.Shutdown(shutdownCtx)
	if err != nil {
		rt.log.WarnContext(ctx, "shutdown incomplete", slogfield.Error(err))
	}
	return errors.Join(tickErr, err)
}

func (rt *Runtime[S]) tick(ctx context.Context) error {
	ticker := time.NewTicker(rt.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := rt.srv.Tick(ctx, rt.state)
		if err != nil {
			return err
		}
	}
}
