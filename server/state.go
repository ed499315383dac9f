// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/router"
)

// State is what a [Server] serves: a bound listener and a routing tree.
type State[S any] struct {
	listener *conn.Listener
	root     *router.Node[S]
}

// NewState pairs l with root, which must be named "/".
func NewState[S any](l *conn.Listener, root *router.Node[S]) (*State[S], error) {
	if root.Name() != router.RootName {
		return nil, InvalidRootError{Name: root.Name()}
	}
	s := &State[S]{
		listener: l,
		root:     root,
	}
	return s, nil
}

// Listener returns the listener connections are accepted from.
func (s *State[S]) Listener() *conn.Listener {
	return s.listener
}

// Root returns the routing tree.
func (s *State[S]) Root() *router.Node[S] {
	return s.root
}
