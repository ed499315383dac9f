// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appbuilder decorates [tickhttp.AppBuilder]s.
package appbuilder

import (
	"context"

	"github.com/z5labs/tickhttp"
	"github.com/z5labs/tickhttp/internal/try"
)

// Recover turns a panic inside builder into a [try.PanicError].
func Recover[T any](builder tickhttp.AppBuilder[T]) tickhttp.AppBuilder[T] {
	return tickhttp.AppBuilderFunc[T](func(ctx context.Context, cfg T) (_ tickhttp.App, err error) {
		defer try.Recover(&err)

		return builder.Build(ctx, cfg)
	})
}
