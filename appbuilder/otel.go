// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"

	"github.com/z5labs/tickhttp"
	"github.com/z5labs/tickhttp/app"
	"github.com/z5labs/tickhttp/lifecycle"

	"go.opentelemetry.io/otel"
)

// OTelInitializer is implemented by configs which know how to set up
// the global OpenTelemetry providers.
type OTelInitializer interface {
	InitializeOTel(context.Context) error
}

// OTel initializes OpenTelemetry from the config before building the app
// and shuts the global providers down once the app has finished. If ctx
// carries a [lifecycle.Context] the shutdown is registered there,
// otherwise the returned app runs it itself.
func OTel[T OTelInitializer](builder tickhttp.AppBuilder[T]) tickhttp.AppBuilder[T] {
	return tickhttp.AppBuilderFunc[T](func(ctx context.Context, cfg T) (tickhttp.App, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		err := cfg.InitializeOTel(ctx)
		if err != nil {
			return nil, err
		}

		onPostRun := lifecycle.MultiHook(
			tryShutdown(otel.GetTracerProvider()),
			tryShutdown(otel.GetMeterProvider()),
		)

		base, err := builder.Build(ctx, cfg)
		if err != nil {
			shutdownErr := onPostRun.Run(ctx)
			if shutdownErr == nil {
				return nil, err
			}
			return nil, errors.Join(err, shutdownErr)
		}

		lc, ok := lifecycle.FromContext(ctx)
		if !ok {
			return app.PostRun(base, onPostRun), nil
		}

		lc.OnPostRun(onPostRun)
		return base, nil
	})
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func tryShutdown(v any) lifecycle.HookFunc {
	return func(ctx context.Context) error {
		if v == nil {
			return nil
		}

		s, ok := v.(shutdowner)
		if !ok {
			return nil
		}
		return s.Shutdown(ctx)
	}
}
