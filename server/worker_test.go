// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/internal/task"
	"github.com/z5labs/tickhttp/slot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workerPair struct {
	client    *conn.Conn
	worker    *Worker
	task      *task.Task
	requests  slot.Consumer[*codec.Request]
	responses slot.Producer[*codec.Response]
}

func startWorker(t *testing.T, ctx context.Context, opts ...Option) *workerPair {
	t.Helper()

	server, client, err := conn.Loopback(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	reqProducer, reqConsumer := slot.New[*codec.Request]()
	respProducer, respConsumer := slot.New[*codec.Response]()
	w := NewWorker(server, reqProducer, respConsumer, opts...)

	return &workerPair{
		client:    client,
		worker:    w,
		task:      task.Go(ctx, w.Run),
		requests:  reqConsumer,
		responses: respProducer,
	}
}

func (p *workerPair) send(t *testing.T, raw string) {
	t.Helper()
	_, err := p.client.Writer().WriteString(raw)
	require.NoError(t, err)
	require.NoError(t, p.client.Writer().Flush())
}

func (p *workerPair) awaitRequest(t *testing.T) *codec.Request {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.requests.Wait(ctx))
	return p.requests.Take()
}

func (p *workerPair) awaitDone(t *testing.T) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-ctx.Done():
		require.FailNow(t, "worker did not finish")
	case <-p.task.Done():
	}
	_, err := p.task.Poll()
	return err
}

func encode(t *testing.T, resp *codec.Response) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, codec.SendResponse(resp, w))
	return buf.Bytes()
}

func TestWorker_Run(t *testing.T) {
	t.Run("will publish exactly one request and write the response", func(t *testing.T) {
		t.Run("if the client sends one request and half-closes", func(t *testing.T) {
			p := startWorker(t, context.Background())

			p.send(t, "GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n")
			require.NoError(t, p.client.CloseWrite())

			req := p.awaitRequest(t)
			if !assert.Equal(t, "/hello", req.Path()) {
				return
			}
			if !assert.Equal(t, p.client.Local().String(), req.RemoteAddr) {
				return
			}
			if !assert.False(t, p.requests.Has()) {
				return
			}

			resp := codec.NewResponse(200, []byte("hi"))
			resp.Header.Set("Content-Type", "text/plain")
			want := encode(t, resp)
			p.responses.Set(resp)

			got, err := io.ReadAll(p.client.Reader())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, string(want), string(got)) {
				return
			}

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
			if !assert.False(t, p.requests.Has()) {
				return
			}
			if !assert.Equal(t, Closed, p.worker.State()) {
				return
			}
		})
	})

	t.Run("will read another request", func(t *testing.T) {
		t.Run("if the response grants keep-alive", func(t *testing.T) {
			p := startWorker(t, context.Background())

			p.send(t, "GET /one HTTP/1.1\r\nHost: example.com\r\n\r\n")
			p.awaitRequest(t)

			resp := codec.NewResponse(200, nil)
			resp.Header.Set("Connection", "keep-alive")
			p.responses.Set(resp)

			p.send(t, "GET /two HTTP/1.1\r\nHost: example.com\r\n\r\n")
			req := p.awaitRequest(t)
			if !assert.Equal(t, "/two", req.Path()) {
				return
			}

			resp = codec.NewResponse(200, nil)
			resp.Header.Set("Connection", "close")
			p.responses.Set(resp)

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
		})
	})

	t.Run("will close without reading again", func(t *testing.T) {
		t.Run("if the response carries no connection header", func(t *testing.T) {
			p := startWorker(t, context.Background())

			p.send(t, "GET /one HTTP/1.1\r\nHost: example.com\r\n\r\n")
			p.awaitRequest(t)
			p.responses.Set(codec.NewResponse(200, nil))

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
			if !assert.False(t, p.requests.Has()) {
				return
			}
		})
	})

	t.Run("will finish without error", func(t *testing.T) {
		t.Run("if the client closes before sending anything", func(t *testing.T) {
			p := startWorker(t, context.Background())
			require.NoError(t, p.client.Close())

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
			if !assert.Equal(t, Closed, p.worker.State()) {
				return
			}
		})

		t.Run("if the context is cancelled while waiting for a response", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			p := startWorker(t, ctx)

			p.send(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
			p.awaitRequest(t)
			cancel()

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
		})

		t.Run("if the context is cancelled while reading", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			p := startWorker(t, ctx)
			cancel()

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
		})
	})

	t.Run("will fail with a ReadError", func(t *testing.T) {
		t.Run("if the request is malformed", func(t *testing.T) {
			p := startWorker(t, context.Background())
			p.send(t, "NOT HTTP\r\n\r\n")

			err := p.awaitDone(t)

			var rerr ReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, codec.StatusBadRequest, rerr.Status) {
				return
			}
			if !assert.Equal(t, p.client.Local().String(), rerr.Peer) {
				return
			}
			if !assert.Equal(t, Failed, p.worker.State()) {
				return
			}
			if !assert.False(t, p.requests.Has()) {
				return
			}
		})

		t.Run("if the body is too large", func(t *testing.T) {
			p := startWorker(t, context.Background(), MaxBodyBytes(4))
			p.send(t, "POST / HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello")

			err := p.awaitDone(t)

			var rerr ReadError
			if !assert.ErrorAs(t, err, &rerr) {
				return
			}
			if !assert.Equal(t, codec.StatusRequestEntityTooLarge, rerr.Status) {
				return
			}
		})
	})

	t.Run("will fail with a ResponseTimeoutError", func(t *testing.T) {
		t.Run("if no response arrives in time", func(t *testing.T) {
			p := startWorker(t, context.Background(), ResponseTimeout(10*time.Millisecond))
			p.send(t, "GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
			p.awaitRequest(t)

			err := p.awaitDone(t)

			var terr ResponseTimeoutError
			if !assert.ErrorAs(t, err, &terr) {
				return
			}
			if !assert.Equal(t, 10*time.Millisecond, terr.After) {
				return
			}
		})
	})
}

func TestWorkerState_String(t *testing.T) {
	t.Run("will name every state", func(t *testing.T) {
		for s := AwaitingRequest; s <= Failed; s++ {
			if !assert.NotEqual(t, "unknown", s.String()) {
				return
			}
		}
		if !assert.Equal(t, "unknown", WorkerState(42).String()) {
			return
		}
	})
}

func TestWorker_Run_clientGone(t *testing.T) {
	t.Run("will finish without error", func(t *testing.T) {
		t.Run("if the client is gone before the response is written", func(t *testing.T) {
			p := startWorker(t, context.Background())

			p.send(t, "GET /big HTTP/1.1\r\nHost: example.com\r\n\r\n")
			p.awaitRequest(t)

			require.NoError(t, p.client.Close())

			resp := codec.NewResponse(200, bytes.Repeat([]byte("x"), 4<<20))
			p.responses.Set(resp)

			if !assert.Nil(t, p.awaitDone(t)) {
				return
			}
			if !assert.Equal(t, Closed, p.worker.State()) {
				return
			}
		})
	})
}
