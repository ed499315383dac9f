// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package conn wraps accepted sockets for exclusive use by a single
// connection goroutine, and exposes a listener which never blocks its caller.
package conn

import (
	"bufio"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// Conn is an accepted socket with buffered read and write sides.
type Conn struct {
	nc   net.Conn
	peer net.Addr
	r    *bufio.Reader
	w    *bufio.Writer
}

// New takes ownership of nc.
func New(nc net.Conn) *Conn {
	return &Conn{
		nc:   nc,
		peer: nc.RemoteAddr(),
		r:    bufio.NewReader(nc),
		w:    bufio.NewWriter(nc),
	}
}

// Peer returns the remote address captured when the connection was accepted.
func (c *Conn) Peer() net.Addr {
	return c.peer
}

// Local returns the local address of the socket.
func (c *Conn) Local() net.Addr {
	return c.nc.LocalAddr()
}

// Reader returns the buffered read side.
func (c *Conn) Reader() *bufio.Reader {
	return c.r
}

// Writer returns the buffered write side.
func (c *Conn) Writer() *bufio.Writer {
	return c.w
}

// SetBlocking clears any read or write deadline so that every subsequent
// read and write waits until it completes or the socket fails.
func (c *Conn) SetBlocking() error {
	return c.nc.SetDeadline(time.Time{})
}

// Interrupt makes any read or write in progress, and every later one,
// fail immediately with a timeout error.
func (c *Conn) Interrupt() error {
	return c.nc.SetDeadline(time.Now())
}

// CloseWrite shuts down the sending side of the socket, if the transport
// supports half-close. Buffered output is flushed first.
func (c *Conn) CloseWrite() error {
	err := c.w.Flush()
	if err != nil {
		return err
	}
	cw, ok := c.nc.(interface{ CloseWrite() error })
	if !ok {
		return nil
	}
	return cw.CloseWrite()
}

// Close flushes buffered output, shuts down both directions and releases
// the socket. Errors which only report that the peer is already gone are
// dropped; any others are joined.
func (c *Conn) Close() error {
	var errs []error
	keep := func(err error) {
		if err != nil && !IsPeerClosed(err) {
			errs = append(errs, err)
		}
	}

	keep(c.w.Flush())
	if s, ok := c.nc.(shutdowner); ok {
		keep(s.CloseRead())
		keep(s.CloseWrite())
	}
	keep(c.nc.Close())
	return errors.Join(errs...)
}

type shutdowner interface {
	CloseRead() error
	CloseWrite() error
}

// IsPeerClosed reports whether err means the remote end has already
// closed, reset or abandoned the connection.
func IsPeerClosed(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ENOTCONN),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, io.EOF):
		return true
	}
	return false
}
