// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"context"
	"net/url"
	"testing"

	"github.com/z5labs/tickhttp/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type calls struct {
	names []string
}

func named(name string) HandlerFunc[*calls] {
	return func(ctx context.Context, c *calls, req *codec.Request) (*codec.Response, error) {
		c.names = append(c.names, name)
		return codec.NewResponse(200, []byte(name)), nil
	}
}

func requestFor(path string) *codec.Request {
	return &codec.Request{
		Method:     "GET",
		URL:        &url.URL{Path: path},
		ProtoMajor: 1,
		ProtoMinor: 1,
	}
}

func handle(t *testing.T, root *Node[*calls], path string) (*calls, *codec.Response, error) {
	t.Helper()
	c := &calls{}
	resp, err := root.Handle(context.Background(), c, ParseKey(RootName), requestFor(path))
	return c, resp, err
}

func TestNode_Handle(t *testing.T) {
	root := MustNew(
		RootName,
		named("root"),
		MustNew("foo", named("foo"),
			MustNew("bar", named("foobar")),
		),
		MustNew("baz", named("baz")),
	)

	t.Run("will invoke the matching handler", func(t *testing.T) {
		testCases := []struct {
			Path string
			Want string
		}{
			{Path: "/", Want: "root"},
			{Path: "/foo", Want: "foo"},
			{Path: "/foo/bar", Want: "foobar"},
			{Path: "/baz", Want: "baz"},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Path, func(t *testing.T) {
				c, resp, err := handle(t, root, testCase.Path)
				if !assert.Nil(t, err) {
					return
				}
				if !assert.Equal(t, []byte(testCase.Want), resp.Body) {
					return
				}
				if !assert.Equal(t, []string{testCase.Want}, c.names) {
					return
				}
			})
		}
	})

	t.Run("will return not found without invoking any handler", func(t *testing.T) {
		for _, path := range []string{"/missing", "/foo/missing", "/foo/bar/baz", "/baz/"} {
			t.Run(path, func(t *testing.T) {
				c, resp, err := handle(t, root, path)
				if !assert.Equal(t, codec.StatusNotFound, err) {
					return
				}
				if !assert.Nil(t, resp) {
					return
				}
				if !assert.Empty(t, c.names) {
					return
				}
			})
		}
	})

	t.Run("will pick the first declared child", func(t *testing.T) {
		t.Run("if two children share a name", func(t *testing.T) {
			root := MustNew(
				RootName,
				nil,
				MustNew("a", named("first")),
				MustNew("a", named("second")),
			)

			c, _, err := handle(t, root, "/a")
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"first"}, c.names) {
				return
			}
		})

		t.Run("if the first child is a dead end for the request", func(t *testing.T) {
			root := MustNew(
				RootName,
				nil,
				MustNew("a", named("a")),
				MustNew("a", nil, MustNew("b", named("ab"))),
			)

			c, _, err := handle(t, root, "/a/b")
			if !assert.Equal(t, codec.StatusNotFound, err) {
				return
			}
			if !assert.Empty(t, c.names) {
				return
			}
		})
	})

	t.Run("will return not found", func(t *testing.T) {
		t.Run("if the matching node has no handler", func(t *testing.T) {
			root := MustNew[*calls](RootName, nil)

			_, _, err := handle(t, root, "/")
			if !assert.Equal(t, codec.StatusNotFound, err) {
				return
			}
		})
	})

	t.Run("will pass handler errors through", func(t *testing.T) {
		root := MustNew(RootName, func(ctx context.Context, c *calls, req *codec.Request) (*codec.Response, error) {
			return nil, codec.StatusMethodNotAllowed
		})

		_, _, err := handle(t, root, "/")
		if !assert.Equal(t, codec.StatusMethodNotAllowed, err) {
			return
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("will return an InvalidNameError", func(t *testing.T) {
		t.Run("if a child name contains a separator", func(t *testing.T) {
			_, err := New(RootName, named("root"), MustNew("foo/bar", named("foobar")))

			var iperr InvalidNameError
			if !assert.ErrorAs(t, err, &iperr) {
				return
			}
			if !assert.Equal(t, "foo/bar", iperr.Name) {
				return
			}
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if MustNew is given an invalid child", func(t *testing.T) {
			assert.Panics(t, func() {
				MustNew(RootName, named("root"), MustNew("/", named("slash")))
			})
		})
	})
}

func TestNode_Walk(t *testing.T) {
	t.Run("will visit every node in declaration order", func(t *testing.T) {
		root := MustNew(
			RootName,
			named("root"),
			MustNew("foo", named("foo"), MustNew[*calls]("bar", nil)),
			MustNew("baz", named("baz")),
		)

		var paths []string
		root.Walk(ParseKey(RootName), func(path Key, n *Node[*calls]) {
			paths = append(paths, path.String())
		})

		require.Len(t, paths, 4)
		if !assert.Equal(t, []string{"/", "/foo", "/foo/bar", "/baz"}, paths) {
			return
		}
	})
}

func TestNode_Handle_escapedSeparator(t *testing.T) {
	root := MustNew(
		RootName,
		named("root"),
		MustNew("a", named("a"),
			MustNew("b", named("a/b")),
		),
	)

	t.Run("will not cross a route boundary", func(t *testing.T) {
		t.Run("if the separator is percent encoded", func(t *testing.T) {
			u, err := url.ParseRequestURI("/a%2Fb")
			require.NoError(t, err)

			c := &calls{}
			req := requestFor("")
			req.URL = u

			_, err = root.Handle(context.Background(), c, ParseKey(RootName), req)
			if !assert.Equal(t, codec.StatusNotFound, codec.StatusOf(err)) {
				return
			}
			if !assert.Empty(t, c.names) {
				return
			}
		})
	})
}
