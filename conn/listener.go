// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package conn

import (
	"context"
	"errors"
	"net"
	"sync"
)

// DefaultBacklog is how many accepted connections may wait for [Listener.TryAccept].
const DefaultBacklog = 128

// ErrWouldBlock is returned by [Listener.TryAccept] when no connection is waiting.
var ErrWouldBlock = errors.New("conn: no connection waiting")

type options struct {
	backlog int
}

// Option configures a [Listener].
type Option func(*options)

// Backlog sets how many accepted connections may be queued before the
// background accept loop stops accepting.
func Backlog(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// Listener accepts connections in the background and hands them out
// without blocking.
type Listener struct {
	ln    net.Listener
	conns chan *Conn

	done      chan struct{}
	closeOnce sync.Once

	failed chan struct{}
	err    error
}

// Listen binds network/addr and starts accepting on it.
func Listen(ctx context.Context, network, addr string, opts ...Option) (*Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	return NewListener(ln, opts...), nil
}

// NewListener takes ownership of ln and starts accepting on it.
func NewListener(ln net.Listener, opts ...Option) *Listener {
	o := &options{
		backlog: DefaultBacklog,
	}
	for _, opt := range opts {
		opt(o)
	}

	l := &Listener{
		ln:     ln,
		conns:  make(chan *Conn, o.backlog),
		done:   make(chan struct{}),
		failed: make(chan struct{}),
	}
	go l.acceptLoop()
	return l
}

func (l *Listener) acceptLoop() {
	for {
		nc, err := l.ln.Accept()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			l.err = err
			close(l.failed)
			return
		}

		select {
		case l.conns <- New(nc):
		case <-l.done:
			nc.Close()
			return
		}
	}
}

// TryAccept returns the next accepted connection, [ErrWouldBlock] if none
// is waiting, or the error which stopped the accept loop. Connections
// already accepted are handed out before that error is reported.
func (l *Listener) TryAccept() (*Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	default:
	}
	select {
	case <-l.failed:
		select {
		case c := <-l.conns:
			return c, nil
		default:
		}
		return nil, l.err
	default:
		return nil, ErrWouldBlock
	}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting and closes any connection not yet handed out.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.ln.Close()
		for {
			select {
			case c := <-l.conns:
				c.nc.Close()
			default:
				return
			}
		}
	})
	return err
}
