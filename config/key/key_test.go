// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Key(t *testing.T) {
	t.Run("will join names with a dot", func(t *testing.T) {
		chain := Chain{Name("http"), Name("addr")}
		if !assert.Equal(t, "http.addr", chain.Key()) {
			return
		}
	})

	t.Run("will round trip through Parse", func(t *testing.T) {
		if !assert.Equal(t, "server.keepAlive.max", Parse("server.keepAlive.max").Key()) {
			return
		}
	})
}
