// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package conn

import (
	"context"
	"net"
)

// Loopback returns the two ends of a fresh TCP connection over the
// loopback interface. The server end is the one that was accepted.
func Loopback(ctx context.Context) (server *Conn, client *Conn, err error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return nil, nil, err
	}
	defer ln.Close()

	type accepted struct {
		nc  net.Conn
		err error
	}
	ch := make(chan accepted, 1)
	go func() {
		nc, err := ln.Accept()
		ch <- accepted{nc: nc, err: err}
	}()

	var d net.Dialer
	cc, err := d.DialContext(ctx, "tcp", ln.Addr().String())
	if err != nil {
		return nil, nil, err
	}

	a := <-ch
	if a.err != nil {
		cc.Close()
		return nil, nil, a.err
	}
	return New(a.nc), New(cc), nil
}
