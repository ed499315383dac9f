// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"fmt"
	"time"

	"github.com/z5labs/tickhttp/codec"
)

// ReadError is returned by a connection worker which could not read a request.
type ReadError struct {
	Peer   string
	Status codec.Status
	Cause  error
}

// Error implements the [builtin.error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Peer, e.Status)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// WriteError is returned by a connection worker which could not write a response.
type WriteError struct {
	Peer  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e WriteError) Error() string {
	return fmt.Sprintf("%s: failed to write response: %s", e.Peer, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e WriteError) Unwrap() error {
	return e.Cause
}

// TeardownError is returned by a connection worker which could not close its connection.
type TeardownError struct {
	Peer  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e TeardownError) Error() string {
	return fmt.Sprintf("%s: failed to close connection: %s", e.Peer, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TeardownError) Unwrap() error {
	return e.Cause
}

// ResponseTimeoutError is returned by a connection worker which gave up
// waiting for a response.
type ResponseTimeoutError struct {
	Peer  string
	After time.Duration
}

// Error implements the [builtin.error] interface.
func (e ResponseTimeoutError) Error() string {
	return fmt.Sprintf("%s: no response after %s", e.Peer, e.After)
}

// ListenerError means the listener can no longer accept connections.
type ListenerError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ListenerError) Error() string {
	return fmt.Sprintf("listener failed: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ListenerError) Unwrap() error {
	return e.Cause
}

// InvalidRootError is returned when a router root is not named "/".
type InvalidRootError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e InvalidRootError) Error() string {
	return fmt.Sprintf("router root must be named \"/\" not %q", e.Name)
}
