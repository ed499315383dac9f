// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package noop

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	t.Run("will report every level as disabled", func(t *testing.T) {
		log := Logger().With("a", "b").WithGroup("g")
		for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			if !assert.False(t, log.Enabled(context.Background(), lvl)) {
				return
			}
		}
	})
}
