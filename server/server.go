// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package server bridges blocking per-connection HTTP I/O with a host
// loop which must never block.
//
// The host calls [Server.Accept], [Server.Reap] and [Server.Respond] (or
// simply [Server.Tick]) once per iteration of its loop. Each call does a
// bounded amount of work and returns. Every accepted connection is served
// by its own [Worker] goroutine, which exchanges requests and responses
// with the host through a [Handle].
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/internal/try"
	"github.com/z5labs/tickhttp/pkg/health"
	"github.com/z5labs/tickhttp/pkg/slogfield"
	"github.com/z5labs/tickhttp/router"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/z5labs/tickhttp/server"

// Server serves the routing tree of a [State] to the connections accepted
// from its listener. Handlers receive the host's state value S on every
// request.
//
// Accept, Reap, Respond and Tick must be called from one goroutine.
type Server[S any] struct {
	state    *State[S]
	registry *Registry
	opts     options
	log      *slog.Logger
	tracer   trace.Tracer

	accepted  metric.Int64Counter
	reaped    metric.Int64Counter
	active    metric.Int64UpDownCounter
	responses metric.Int64Counter

	// workers outlive any single tick so they get their own context
	workerCtx    context.Context
	cancelWorker context.CancelFunc

	listenerFailed atomic.Bool
}

// New returns a server for state.
func New[S any](state *State[S], opts ...Option) (*Server[S], error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.meterProvider.Meter(instrumentationName)
	accepted, err := meter.Int64Counter(
		"tickhttp.connections.accepted",
		metric.WithDescription("Number of connections accepted."),
	)
	if err != nil {
		return nil, err
	}
	reaped, err := meter.Int64Counter(
		"tickhttp.connections.reaped",
		metric.WithDescription("Number of finished connections removed, by outcome."),
	)
	if err != nil {
		return nil, err
	}
	active, err := meter.Int64UpDownCounter(
		"tickhttp.connections.active",
		metric.WithDescription("Number of connections currently registered."),
	)
	if err != nil {
		return nil, err
	}
	responses, err := meter.Int64Counter(
		"tickhttp.responses",
		metric.WithDescription("Number of responses handed to connection workers, by status code."),
	)
	if err != nil {
		return nil, err
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	s := &Server[S]{
		state:        state,
		registry:     NewRegistry(),
		opts:         o,
		log:          o.log,
		tracer:       o.tracerProvider.Tracer(instrumentationName),
		accepted:     accepted,
		reaped:       reaped,
		active:       active,
		responses:    responses,
		workerCtx:    workerCtx,
		cancelWorker: cancel,
	}

	state.root.Walk(router.ParseKey(router.RootName), func(path router.Key, n *router.Node[S]) {
		s.log.Debug("registered route", slogfield.Path(path.String()))
	})
	return s, nil
}

// Connections returns the number of registered connections.
func (s *Server[S]) Connections() int {
	return s.registry.Len()
}

// Healthy reports whether the listener can still accept connections.
func (s *Server[S]) Healthy(ctx context.Context) bool {
	return !s.listenerFailed.Load()
}

// Tick runs Accept, Reap and Respond in that order. Only a broken
// listener is reported as an error.
func (s *Server[S]) Tick(ctx context.Context, state S) error {
	err := s.Accept(ctx)
	if err != nil {
		return err
	}
	s.Reap(ctx)
	s.Respond(ctx, state)
	return nil
}

// Accept registers every connection waiting on the listener and starts a
// worker for each. It returns a [ListenerError] if the listener fails,
// after which the server cannot make progress.
func (s *Server[S]) Accept(ctx context.Context) error {
	for {
		c, err := s.state.listener.TryAccept()
		if errors.Is(err, conn.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			s.listenerFailed.Store(true)
			s.log.ErrorContext(ctx, "listener failed", slogfield.Error(err))
			return ListenerError{Cause: err}
		}

		err = c.SetBlocking()
		if err != nil {
			s.log.WarnContext(ctx, "dropping connection", slogfield.Peer(c.Peer()), slogfield.Error(err))
			c.Close()
			continue
		}

		h := spawn(s.workerCtx, c, s.opts)
		id := s.registry.Insert(h)
		s.accepted.Add(ctx, 1)
		s.active.Add(ctx, 1)
		s.log.InfoContext(ctx, "accepted connection", slogfield.Entity(uint64(id)), slogfield.Peer(h.Peer()))
	}
}

// Reap removes every handle whose worker has finished. Failed workers
// are logged.
func (s *Server[S]) Reap(ctx context.Context) {
	s.registry.Each(func(id EntityID, h *Handle) bool {
		done, err := h.Poll()
		if !done {
			return true
		}
		s.registry.Remove(id)
		s.active.Add(ctx, -1)

		outcome := "closed"
		if err != nil {
			outcome = "failed"
			s.log.WarnContext(
				ctx,
				"connection worker failed",
				slogfield.Entity(uint64(id)),
				slogfield.Peer(h.Peer()),
				slogfield.Error(err),
			)
		} else {
			s.log.DebugContext(ctx, "connection closed", slogfield.Entity(uint64(id)), slogfield.Peer(h.Peer()))
		}
		s.reaped.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		return true
	})
}

type pending struct {
	id  EntityID
	req *codec.Request
}

// Respond routes every published request and hands the resulting
// response back to its worker. Routing failures become plain text error
// responses and are never returned.
func (s *Server[S]) Respond(ctx context.Context, state S) {
	root := s.state.root

	var work []pending
	s.registry.Each(func(id EntityID, h *Handle) bool {
		if h.HasRequest() {
			work = append(work, pending{id: id, req: h.TakeRequest()})
		}
		return true
	})

	for _, p := range work {
		resp := s.dispatch(ctx, state, root, p)

		h, ok := s.registry.Get(p.id)
		if !ok {
			continue
		}
		h.SetResponse(resp)
	}
}

func (s *Server[S]) dispatch(ctx context.Context, state S, root *router.Node[S], p pending) *codec.Response {
	spanCtx, span := s.tracer.Start(ctx, "Server.Respond", trace.WithAttributes(
		attribute.String("http.method", p.req.Method),
		attribute.String("http.target", p.req.Path()),
		attribute.Int64("tickhttp.entity", int64(p.id)),
	))
	defer span.End()

	resp, err := handle(spanCtx, state, root, p.req)
	if err == nil && resp == nil {
		err = fmt.Errorf("handler for %s returned no response", p.req.Path())
	}
	if err != nil {
		status := codec.StatusOf(err)
		if status >= codec.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.ErrorContext(spanCtx, "handler failed", slogfield.Path(p.req.Path()), slogfield.Error(err))
		}
		resp = codec.ErrorResponse(status)
	} else {
		s.finalize(p.req, resp)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	s.responses.Add(spanCtx, 1, metric.WithAttributes(attribute.Int("http.status_code", resp.StatusCode)))
	s.log.DebugContext(
		spanCtx,
		"responded",
		slogfield.Entity(uint64(p.id)),
		slogfield.Method(p.req.Method),
		slogfield.Path(p.req.Path()),
		slogfield.Status(resp.StatusCode),
	)
	return resp
}

func handle[S any](ctx context.Context, state S, root *router.Node[S], req *codec.Request) (resp *codec.Response, err error) {
	defer try.Recover(&err)

	return root.Handle(ctx, state, router.ParseKey(router.RootName), req)
}

// finalize fills in the connection management and entity headers the
// handler left out.
func (s *Server[S]) finalize(req *codec.Request, resp *codec.Response) {
	if codec.KeepAliveRequested(req) && !codec.KeepAliveDenied(resp) {
		codec.HeaderIfMissing(resp, "Connection", "keep-alive")
		codec.HeaderIfMissing(resp, "Keep-Alive", fmt.Sprintf(
			"timeout=%d, max=%d",
			keepAliveSeconds(s.opts.keepAliveTimeout),
			s.opts.keepAliveMax,
		))
	} else {
		codec.HeaderIfMissing(resp, "Connection", "close")
	}
	codec.HeaderIfMissing(resp, "Content-Length", strconv.Itoa(len(resp.Body)))
	codec.HeaderIfMissing(resp, "Content-Type", s.opts.contentType)
}

// keepAliveSeconds rounds d up so a sub-second timeout is never
// advertised as zero.
func keepAliveSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

// Shutdown stops accepting, interrupts every worker and waits for them
// to finish or for ctx to end. It must not be called concurrently with
// the tick methods.
func (s *Server[S]) Shutdown(ctx context.Context) error {
	s.cancelWorker()
	err := s.state.listener.Close()

	for {
		var h *Handle
		s.registry.Each(func(_ EntityID, x *Handle) bool {
			h = x
			return false
		})
		if h == nil {
			return err
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-h.Done():
		}
		s.Reap(ctx)
	}
}

var _ health.Metric = (*Server[struct{}])(nil)
