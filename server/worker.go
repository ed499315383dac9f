// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/pkg/slogfield"
	"github.com/z5labs/tickhttp/slot"
)

// WorkerState is a step of the connection worker's loop.
type WorkerState int32

const (
	AwaitingRequest WorkerState = iota
	RequestPublished
	AwaitingResponse
	ResponseSent
	Closed
	Failed
)

var workerStateNames = [...]string{
	AwaitingRequest:  "awaiting_request",
	RequestPublished: "request_published",
	AwaitingResponse: "awaiting_response",
	ResponseSent:     "response_sent",
	Closed:           "closed",
	Failed:           "failed",
}

// String implements the [fmt.Stringer] interface.
func (s WorkerState) String() string {
	if s < 0 || int(s) >= len(workerStateNames) {
		return "unknown"
	}
	return workerStateNames[s]
}

// Worker serves one connection. It reads requests off the socket,
// publishes each one, waits for the matching response and writes it back,
// for as long as keep-alive is granted.
//
// A Worker is the only user of its connection and must run in its own
// goroutine since every read and write blocks.
type Worker struct {
	conn      *conn.Conn
	peer      string
	requests  slot.Producer[*codec.Request]
	responses slot.Consumer[*codec.Response]
	state     atomic.Int32

	log             *slog.Logger
	responseTimeout time.Duration
	maxBodyBytes    int64
}

// NewWorker returns a worker for c which publishes requests through
// requests and takes responses from responses.
func NewWorker(c *conn.Conn, requests slot.Producer[*codec.Request], responses slot.Consumer[*codec.Response], opts ...Option) *Worker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newWorker(c, requests, responses, o)
}

func newWorker(c *conn.Conn, requests slot.Producer[*codec.Request], responses slot.Consumer[*codec.Response], o options) *Worker {
	peer := ""
	if addr := c.Peer(); addr != nil {
		peer = addr.String()
	}
	return &Worker{
		conn:            c,
		peer:            peer,
		requests:        requests,
		responses:       responses,
		log:             o.log.With(slogfield.Peer(c.Peer())),
		responseTimeout: o.responseTimeout,
		maxBodyBytes:    o.maxBodyBytes,
	}
}

// State returns the step the worker is currently in.
func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

func (w *Worker) transition(ctx context.Context, s WorkerState) {
	w.state.Store(int32(s))
	w.log.DebugContext(ctx, "connection worker transitioned", slogfield.State(s))
}

// Run serves the connection until the peer goes away, keep-alive is not
// granted or an I/O failure occurs, and then closes the connection.
//
// A peer closing the connection is not an error. Cancelling ctx interrupts
// any read or write in progress and also ends Run without an error.
func (w *Worker) Run(ctx context.Context) (err error) {
	stop := context.AfterFunc(ctx, func() {
		w.conn.Interrupt()
	})
	defer stop()

	defer func() {
		closeErr := w.conn.Close()
		if closeErr != nil && ctx.Err() == nil {
			err = errors.Join(err, TeardownError{Peer: w.peer, Cause: closeErr})
		}
		if err != nil {
			w.transition(ctx, Failed)
			return
		}
		w.transition(ctx, Closed)
	}()

	for {
		w.transition(ctx, AwaitingRequest)
		req, err := codec.ReadRequest(w.conn.Reader(), codec.MaxBodyBytes(w.maxBodyBytes))
		if err != nil {
			if ctx.Err() != nil || conn.IsPeerClosed(err) {
				return nil
			}
			return ReadError{
				Peer:   w.peer,
				Status: codec.StatusOf(err),
				Cause:  err,
			}
		}
		if req == nil {
			return nil
		}
		req.RemoteAddr = w.peer

		w.requests.Set(req)
		w.transition(ctx, RequestPublished)

		w.transition(ctx, AwaitingResponse)
		resp, err := w.awaitResponse(ctx)
		if err != nil {
			return err
		}
		if resp == nil {
			return nil
		}

		keepAlive := codec.KeepAliveGranted(resp)
		err = codec.SendResponse(resp, w.conn.Writer())
		if err != nil {
			if ctx.Err() != nil || conn.IsPeerClosed(err) {
				return nil
			}
			return WriteError{Peer: w.peer, Cause: err}
		}
		w.transition(ctx, ResponseSent)

		if !keepAlive {
			return nil
		}
	}
}

// awaitResponse returns a nil response, and no error, if ctx is cancelled.
func (w *Worker) awaitResponse(ctx context.Context) (*codec.Response, error) {
	waitCtx := ctx
	if w.responseTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, w.responseTimeout)
		defer cancel()
	}

	err := w.responses.Wait(waitCtx)
	if err == nil {
		return w.responses.Take(), nil
	}
	if ctx.Err() != nil {
		return nil, nil
	}
	return nil, ResponseTimeoutError{Peer: w.peer, After: w.responseTimeout}
}
