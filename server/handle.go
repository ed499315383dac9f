// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"context"
	"net"
	"time"

	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/internal/task"
	"github.com/z5labs/tickhttp/slot"
)

// Handle is the orchestrator's side of a connection worker. It never
// touches the socket.
type Handle struct {
	requests   slot.Consumer[*codec.Request]
	responses  slot.Producer[*codec.Response]
	task       *task.Task
	worker     *Worker
	peer       net.Addr
	acceptedAt time.Time
}

// Spawn starts a worker for c in its own goroutine and returns its handle.
// The worker stops early once ctx is cancelled.
func Spawn(ctx context.Context, c *conn.Conn, opts ...Option) *Handle {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return spawn(ctx, c, o)
}

func spawn(ctx context.Context, c *conn.Conn, o options) *Handle {
	reqProducer, reqConsumer := slot.New[*codec.Request]()
	respProducer, respConsumer := slot.New[*codec.Response]()

	w := newWorker(c, reqProducer, respConsumer, o)
	return &Handle{
		requests:   reqConsumer,
		responses:  respProducer,
		task:       task.Go(ctx, w.Run),
		worker:     w,
		peer:       c.Peer(),
		acceptedAt: time.Now(),
	}
}

// Peer returns the remote address of the connection.
func (h *Handle) Peer() net.Addr {
	return h.peer
}

// AcceptedAt returns when the connection was accepted.
func (h *Handle) AcceptedAt() time.Time {
	return h.acceptedAt
}

// State returns the current step of the worker.
func (h *Handle) State() WorkerState {
	return h.worker.State()
}

// HasRequest reports whether the worker has published a request.
func (h *Handle) HasRequest() bool {
	return h.requests.Has()
}

// TakeRequest removes the published request. It panics if there is none.
func (h *Handle) TakeRequest() *codec.Request {
	return h.requests.Take()
}

// SetResponse hands resp to the worker.
func (h *Handle) SetResponse(resp *codec.Response) {
	h.responses.Set(resp)
}

// Poll reports, without blocking, whether the worker has finished and
// with what result.
func (h *Handle) Poll() (done bool, err error) {
	return h.task.Poll()
}

// Done is closed once the worker has finished.
func (h *Handle) Done() <-chan struct{} {
	return h.task.Done()
}
