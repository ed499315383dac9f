// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"fmt"
	"slices"
	"strings"
)

// Separator divides the segments of a URL path.
const Separator = "/"

// Key is a URL path split into segments.
//
// The empty path has no segments, the root path "/" has a single empty
// segment and "/foo/bar" has the three segments "", "foo" and "bar".
// The zero value is the empty path.
type Key struct {
	segments []string
}

// ParseKey splits p into a [Key].
func ParseKey(p string) Key {
	switch p {
	case "":
		return Key{}
	case Separator:
		return Key{segments: []string{""}}
	}
	return Key{segments: strings.Split(p, Separator)}
}

// Push returns a copy of k extended by segment. Pushing onto the
// empty path yields a path rooted at "/".
func (k Key) Push(segment string) Key {
	segments := make([]string, 0, len(k.segments)+2)
	segments = append(segments, k.segments...)
	if len(segments) == 0 {
		segments = append(segments, "")
	}
	segments = append(segments, segment)
	return Key{segments: segments}
}

// StartsWith reports whether the segments of prefix are a prefix of the
// segments of k. Every path starts with the empty path, while the empty
// path never starts with "/".
func (k Key) StartsWith(prefix Key) bool {
	if len(k.segments) < len(prefix.segments) {
		return false
	}
	return slices.Equal(k.segments[:len(prefix.segments)], prefix.segments)
}

// Equal reports whether k and other have identical segments.
func (k Key) Equal(other Key) bool {
	return slices.Equal(k.segments, other.segments)
}

// Len returns the number of segments.
func (k Key) Len() int {
	return len(k.segments)
}

// Segments returns a copy of the segments.
func (k Key) Segments() []string {
	return slices.Clone(k.segments)
}

// String joins the segments back into a path.
func (k Key) String() string {
	switch len(k.segments) {
	case 0:
		return ""
	case 1:
		return Separator
	}
	return strings.Join(k.segments, Separator)
}

// GoString implements [fmt.GoStringer] by listing the segments.
func (k Key) GoString() string {
	return fmt.Sprintf("%q", k.segments)
}
