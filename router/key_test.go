// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKey(t *testing.T) {
	testCases := []struct {
		Name     string
		Path     string
		Segments []string
	}{
		{Name: "empty", Path: "", Segments: []string{}},
		{Name: "root", Path: "/", Segments: []string{""}},
		{Name: "one segment", Path: "/foo", Segments: []string{"", "foo"}},
		{Name: "two segments", Path: "/foo/bar", Segments: []string{"", "foo", "bar"}},
		{Name: "three segments", Path: "/foo/bar/baz", Segments: []string{"", "foo", "bar", "baz"}},
		{Name: "trailing separator", Path: "/foo/", Segments: []string{"", "foo", ""}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			key := ParseKey(testCase.Path)
			if !assert.Equal(t, len(testCase.Segments), key.Len()) {
				return
			}
			if len(testCase.Segments) == 0 {
				return
			}
			if !assert.Equal(t, testCase.Segments, key.Segments()) {
				return
			}
		})
	}

	t.Run("will be empty", func(t *testing.T) {
		t.Run("if the zero value is used", func(t *testing.T) {
			var key Key
			if !assert.True(t, key.Equal(ParseKey(""))) {
				return
			}
			if !assert.Equal(t, "", key.String()) {
				return
			}
		})
	})
}

func TestKey_Push(t *testing.T) {
	t.Run("will root the path", func(t *testing.T) {
		t.Run("if the key is empty", func(t *testing.T) {
			key := ParseKey("").Push("foo")
			if !assert.Equal(t, []string{"", "foo"}, key.Segments()) {
				return
			}
		})
	})

	t.Run("will append one segment", func(t *testing.T) {
		t.Run("if the key is the root", func(t *testing.T) {
			key := ParseKey("/").Push("foo")
			if !assert.Equal(t, []string{"", "foo"}, key.Segments()) {
				return
			}
		})

		t.Run("if the key has segments", func(t *testing.T) {
			key := ParseKey("/foo").Push("bar")
			if !assert.Equal(t, []string{"", "foo", "bar"}, key.Segments()) {
				return
			}
		})
	})

	t.Run("will strictly grow the key", func(t *testing.T) {
		for _, p := range []string{"", "/", "/foo", "/foo/bar"} {
			key := ParseKey(p)
			if !assert.Greater(t, key.Push("x").Len(), key.Len(), p) {
				return
			}
		}
	})

	t.Run("will not modify the receiver", func(t *testing.T) {
		base := ParseKey("/foo")
		a := base.Push("a")
		b := base.Push("b")
		if !assert.Equal(t, "/foo", base.String()) {
			return
		}
		if !assert.Equal(t, "/foo/a", a.String()) {
			return
		}
		if !assert.Equal(t, "/foo/b", b.String()) {
			return
		}
	})
}

func TestKey_StartsWith(t *testing.T) {
	testCases := []struct {
		Name   string
		Key    string
		Prefix string
		Want   bool
	}{
		{Name: "empty starts with empty", Key: "", Prefix: "", Want: true},
		{Name: "empty does not start with root", Key: "", Prefix: "/", Want: false},
		{Name: "root starts with empty", Key: "/", Prefix: "", Want: true},
		{Name: "root starts with root", Key: "/", Prefix: "/", Want: true},
		{Name: "root does not start with foo", Key: "/", Prefix: "/foo", Want: false},
		{Name: "foo starts with root", Key: "/foo", Prefix: "/", Want: true},
		{Name: "foo starts with foo", Key: "/foo", Prefix: "/foo", Want: true},
		{Name: "foo bar starts with foo", Key: "/foo/bar", Prefix: "/foo", Want: true},
		{Name: "foo does not start with foo bar", Key: "/foo", Prefix: "/foo/bar", Want: false},
		{Name: "foobar does not start with foo", Key: "/foobar", Prefix: "/foo", Want: false},
		{Name: "bar does not start with foo", Key: "/bar", Prefix: "/foo", Want: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			got := ParseKey(testCase.Key).StartsWith(ParseKey(testCase.Prefix))
			if !assert.Equal(t, testCase.Want, got) {
				return
			}
		})
	}
}

func TestKey_String(t *testing.T) {
	t.Run("will round trip", func(t *testing.T) {
		for _, p := range []string{"", "/", "/foo", "/foo/bar", "/foo/bar/baz"} {
			if !assert.Equal(t, p, ParseKey(p).String()) {
				return
			}
		}
	})

	t.Run("will render a pushed path", func(t *testing.T) {
		key := ParseKey("").Push("foo").Push("bar")
		if !assert.Equal(t, "/foo/bar", key.String()) {
			return
		}
	})
}

func TestKey_Equal(t *testing.T) {
	t.Run("will distinguish empty from root", func(t *testing.T) {
		if !assert.False(t, ParseKey("").Equal(ParseKey("/"))) {
			return
		}
	})

	t.Run("will match a parsed and a pushed key", func(t *testing.T) {
		if !assert.True(t, ParseKey("/foo/bar").Equal(ParseKey("/").Push("foo").Push("bar"))) {
			return
		}
	})
}
