// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/z5labs/tickhttp"
	"github.com/z5labs/tickhttp/app"
	"github.com/z5labs/tickhttp/appbuilder"
	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/conn"
	"github.com/z5labs/tickhttp/lifecycle"
	"github.com/z5labs/tickhttp/loop"
	"github.com/z5labs/tickhttp/pkg/health"
	"github.com/z5labs/tickhttp/pkg/maskslog"
	"github.com/z5labs/tickhttp/pkg/otelslog"
	"github.com/z5labs/tickhttp/pkg/slogfield"
	"github.com/z5labs/tickhttp/router"
	"github.com/z5labs/tickhttp/server"

	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo routes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder := appbuilder.Recover(
				appbuilder.OTel(
					tickhttp.AppBuilderFunc[Config](func(ctx context.Context, cfg Config) (tickhttp.App, error) {
						return buildApp(ctx, cfg, cmd.ErrOrStderr())
					}),
				),
			)

			a := app.WithLifecycle(tickhttp.AppFunc(func(ctx context.Context) error {
				return tickhttp.Run(ctx, builder, configSources(configPath)...)
			}))
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file merged over the defaults")
	return cmd
}

func newLogger(w io.Writer, level slog.Level, maskPeers bool) *slog.Logger {
	var h slog.Handler = otelslog.NewHandler(
		slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}),
		otelslog.SpanEventLevel(slog.LevelWarn),
	)
	if maskPeers {
		h = maskslog.NewHandler(h, maskslog.Attr("peer", maskslog.TruncateAddr))
	}
	return slog.New(h)
}

func buildApp(ctx context.Context, cfg Config, logOut io.Writer) (tickhttp.App, error) {
	log := newLogger(logOut, cfg.Logging.Level, cfg.Logging.MaskPeers)

	srv, l, err := newServer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if lc, ok := lifecycle.FromContext(ctx); ok {
		lc.OnPostRun(lifecycle.HookFunc(func(context.Context) error {
			return l.Close()
		}))
	}
	log.InfoContext(ctx, "listening", slogfield.Addr(l.Addr()))

	rt := loop.New(
		srv,
		&demo{},
		loop.Logger(log),
		loop.Interval(cfg.HTTP.TickInterval),
		loop.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
	)
	return app.Recover(app.WithSignalNotifications(rt, os.Interrupt, syscall.SIGTERM)), nil
}

// demo is the state handed to every handler. It is only touched from
// the tick goroutine.
type demo struct {
	echoed uint64
	flaky  uint64
}

func newServer(ctx context.Context, cfg Config, log *slog.Logger) (*server.Server[*demo], *conn.Listener, error) {
	addr := cfg.HTTP.Addr
	if addr == "" {
		addr = server.DefaultAddr
	}

	var lopts []conn.Option
	if cfg.HTTP.Backlog > 0 {
		lopts = append(lopts, conn.Backlog(cfg.HTTP.Backlog))
	}
	l, err := conn.Listen(ctx, "tcp", addr, lopts...)
	if err != nil {
		return nil, nil, err
	}

	// the health route reports on the server it is served by
	var srv *server.Server[*demo]
	healthy := health.MetricFunc(func(ctx context.Context) bool {
		return srv != nil && srv.Healthy(ctx)
	})

	root := router.MustNew(
		router.RootName,
		server.HelloHandler[*demo],
		router.MustNew("echo", echo),
		router.MustNew("health", health.Handler[*demo](healthy)),
		router.MustNew("flaky", router.Breaker(
			"flaky",
			flaky,
			router.TripAfter(3),
			router.OpenTimeout(10*time.Second),
			router.OnStateChange(func(name string, from, to gobreaker.State) {
				log.WarnContext(ctx, "circuit state changed",
					slogfield.String("circuit", name),
					slogfield.String("from", from.String()),
					slogfield.String("to", to.String()),
				)
			}),
		)),
	)

	state, err := server.NewState(l, root)
	if err != nil {
		l.Close()
		return nil, nil, err
	}

	opts := []server.Option{
		server.Logger(log),
		server.ResponseTimeout(cfg.HTTP.ResponseTimeout),
	}
	if cfg.HTTP.MaxBodyBytes > 0 {
		opts = append(opts, server.MaxBodyBytes(cfg.HTTP.MaxBodyBytes))
	}
	if cfg.HTTP.KeepAlive.Timeout > 0 && cfg.HTTP.KeepAlive.Max > 0 {
		opts = append(opts, server.KeepAliveHint(cfg.HTTP.KeepAlive.Timeout, cfg.HTTP.KeepAlive.Max))
	}

	srv, err = server.New(state, opts...)
	if err != nil {
		l.Close()
		return nil, nil, err
	}
	return srv, l, nil
}

func echo(ctx context.Context, d *demo, req *codec.Request) (*codec.Response, error) {
	d.echoed++

	resp := codec.NewResponse(http.StatusOK, req.Body)
	contentType := req.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	resp.Header.Set("Content-Type", contentType)
	return resp, nil
}

// flaky fails whenever the query carries "fail" so the breaker in front
// of it can be tripped on demand.
func flaky(ctx context.Context, d *demo, req *codec.Request) (*codec.Response, error) {
	d.flaky++

	if req.URL.Query().Has("fail") {
		return nil, codec.StatusInternalServerError
	}
	resp := codec.NewResponse(http.StatusOK, []byte("ok"))
	resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return resp, nil
}
