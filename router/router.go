// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package router dispatches requests through a tree of named path segments.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/z5labs/tickhttp/codec"
)

// RootName is the name a tree's root node must carry.
const RootName = Separator

// HandlerFunc produces a response for a request. The state value is the
// host's capability object, handed through unchanged from the caller of
// [Node.Handle].
//
// Returning a [codec.Status] as the error makes the server answer with
// that status instead of a handler response.
type HandlerFunc[S any] func(ctx context.Context, state S, req *codec.Request) (*codec.Response, error)

// InvalidNameError is returned when a child node name contains [Separator].
type InvalidNameError struct {
	Name string
}

// Error implements the [builtin.error] interface.
func (e InvalidNameError) Error() string {
	return fmt.Sprintf("router: child name %q must not contain %q", e.Name, Separator)
}

// Node is one segment of the routing tree.
type Node[S any] struct {
	name     string
	handler  HandlerFunc[S]
	children []*Node[S]
}

// New returns a node named name which answers requests for its own path
// with h. Children are matched in the order given.
func New[S any](name string, h HandlerFunc[S], children ...*Node[S]) (*Node[S], error) {
	n := &Node[S]{
		name:    name,
		handler: h,
	}
	for _, child := range children {
		err := n.AddChild(child)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

// MustNew is like [New] but panics if a child name is invalid.
func MustNew[S any](name string, h HandlerFunc[S], children ...*Node[S]) *Node[S] {
	n, err := New(name, h, children...)
	if err != nil {
		panic(err)
	}
	return n
}

// AddChild appends child after any existing children.
func (n *Node[S]) AddChild(child *Node[S]) error {
	if strings.Contains(child.name, Separator) {
		return InvalidNameError{Name: child.name}
	}
	n.children = append(n.children, child)
	return nil
}

// Name returns the segment this node matches.
func (n *Node[S]) Name() string {
	return n.name
}

// Handle routes req starting at n, which is taken to live at current.
//
// Children are tried in declaration order and the first one whose path
// prefixes the request path handles it, even if a later sibling would
// match more specifically. When no child matches, n answers itself only
// if current equals the request path exactly; otherwise the result is
// [codec.StatusNotFound] and no handler runs.
func (n *Node[S]) Handle(ctx context.Context, state S, current Key, req *codec.Request) (*codec.Response, error) {
	return n.handle(ctx, state, current, ParseKey(req.Path()), req)
}

func (n *Node[S]) handle(ctx context.Context, state S, current, target Key, req *codec.Request) (*codec.Response, error) {
	for _, child := range n.children {
		candidate := current.Push(child.name)
		if target.StartsWith(candidate) {
			return child.handle(ctx, state, candidate, target, req)
		}
	}
	if !current.Equal(target) || n.handler == nil {
		return nil, codec.StatusNotFound
	}
	return n.handler(ctx, state, req)
}

// Walk calls f for n and every descendant, depth first in declaration
// order, with the path each node serves when n lives at current.
func (n *Node[S]) Walk(current Key, f func(path Key, node *Node[S])) {
	f(current, n)
	for _, child := range n.children {
		child.Walk(current.Push(child.name), f)
	}
}
