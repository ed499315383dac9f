// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield provides the slog attributes logged across tickhttp,
// so that the same concept always lands under the same key.
package slogfield

import (
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Any returns an slog.Attr for the supplied value.
func Any(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// Bool returns an slog.Attr for a bool.
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// String returns an slog.Attr for a string.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Strings returns an slog.Attr for a slice of strings.
func Strings(key string, values []string) slog.Attr {
	return slog.Any(key, values)
}

// Int returns an slog.Attr for a int.
func Int(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Uint64 returns an slog.Attr for a uint64.
func Uint64(key string, n uint64) slog.Attr {
	return slog.Uint64(key, n)
}

// Peer returns the remote address of a connection.
func Peer(addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String("peer", "")
	}
	return slog.String("peer", addr.String())
}

// Addr returns a local listening address.
func Addr(addr net.Addr) slog.Attr {
	if addr == nil {
		return slog.String("addr", "")
	}
	return slog.String("addr", addr.String())
}

// Entity returns the registry identifier of a connection.
func Entity(id uint64) slog.Attr {
	return slog.Uint64("entity", id)
}

// Path returns a request or route path.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Method returns a request method.
func Method(m string) slog.Attr {
	return slog.String("method", m)
}

// Status returns an HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int("status", code)
}

// State returns the state of a connection worker.
func State(s fmt.Stringer) slog.Attr {
	return slog.String("state", s.String())
}
