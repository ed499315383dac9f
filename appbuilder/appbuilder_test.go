// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/z5labs/tickhttp"
	"github.com/z5labs/tickhttp/internal/try"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying builder returns an error", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			builder := Recover(tickhttp.AppBuilderFunc[struct{}](func(ctx context.Context, cfg struct{}) (tickhttp.App, error) {
				return nil, buildErr
			}))

			_, err := builder.Build(context.Background(), struct{}{})
			if !assert.Equal(t, buildErr, err) {
				return
			}
		})

		t.Run("if the underlying builder panics", func(t *testing.T) {
			builder := Recover(tickhttp.AppBuilderFunc[struct{}](func(ctx context.Context, cfg struct{}) (tickhttp.App, error) {
				panic("hello world")
			}))

			_, err := builder.Build(context.Background(), struct{}{})

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "hello world", perr.Value) {
				return
			}
		})
	})
}
