// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	_ "embed"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/z5labs/tickhttp/config"
	"github.com/z5labs/tickhttp/pkg/otelconfig"

	"go.opentelemetry.io/otel"
)

//go:embed base_config.yaml
var baseConfig []byte

// EnvPrefix marks environment variables which override config values,
// e.g. TICKHTTP_HTTP_ADDR sets http.addr.
const EnvPrefix = "TICKHTTP_"

// Config is decoded from the merged config sources.
type Config struct {
	Logging struct {
		Level slog.Level `config:"level"`

		// MaskPeers truncates client addresses in log records.
		MaskPeers bool `config:"maskPeers"`
	} `config:"logging"`

	OTel OTelConfig `config:"otel"`

	HTTP struct {
		Addr            string        `config:"addr"`
		Backlog         int           `config:"backlog"`
		TickInterval    time.Duration `config:"tickInterval"`
		ShutdownTimeout time.Duration `config:"shutdownTimeout"`
		ResponseTimeout time.Duration `config:"responseTimeout"`
		MaxBodyBytes    int64         `config:"maxBodyBytes"`
		KeepAlive       struct {
			Timeout time.Duration `config:"timeout"`
			Max     int           `config:"max"`
		} `config:"keepAlive"`
	} `config:"http"`
}

// OTelConfig selects where traces go. Exporter is one of "none",
// "stdout" or "otlp".
type OTelConfig struct {
	ServiceName string `config:"serviceName"`
	Exporter    string `config:"exporter"`
	OTLP        struct {
		Target string `config:"target"`
	} `config:"otlp"`
}

// UnknownExporterError is returned for an unsupported otel.exporter value.
type UnknownExporterError struct {
	Exporter string
}

func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown otel exporter: %q", e.Exporter)
}

func (cfg Config) initializer() (otelconfig.Initializer, error) {
	common := []otelconfig.CommonOption{
		otelconfig.ServiceName(cfg.OTel.ServiceName),
		otelconfig.ServiceVersion(version),
	}

	switch cfg.OTel.Exporter {
	case "", "none":
		return otelconfig.Noop, nil
	case "stdout":
		opts := []otelconfig.LocalOption{otelconfig.Output(os.Stderr)}
		for _, opt := range common {
			opts = append(opts, opt)
		}
		return otelconfig.Local(opts...), nil
	case "otlp":
		opts := []otelconfig.OTLPOption{otelconfig.OTLPTarget(cfg.OTel.OTLP.Target)}
		for _, opt := range common {
			opts = append(opts, opt)
		}
		return otelconfig.OTLP(opts...), nil
	default:
		return nil, UnknownExporterError{Exporter: cfg.OTel.Exporter}
	}
}

// InitializeOTel registers the configured tracer provider globally.
func (cfg Config) InitializeOTel(ctx context.Context) error {
	initializer, err := cfg.initializer()
	if err != nil {
		return err
	}
	if initializer == otelconfig.Noop {
		return nil
	}

	tp, err := initializer.Init(ctx)
	if err != nil {
		return err
	}
	otel.SetTracerProvider(tp)
	return nil
}

func render(r io.Reader) io.Reader {
	return config.RenderTextTemplate(
		r,
		config.TemplateFunc("env", os.Getenv),
		config.TemplateFunc("default", func(s string, v any) any {
			if len(s) == 0 {
				return v
			}
			return s
		}),
	)
}

// fileSource decodes the file at path as JSON if it ends in ".json" and
// as YAML otherwise.
func fileSource(path string) config.Source {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	f := config.NewFileReader(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))

	if strings.EqualFold(filepath.Ext(abs), ".json") {
		return config.FromJson(render(f))
	}
	return config.FromYaml(render(f))
}

// configSources returns the embedded defaults, then the optional file at
// path, then environment overrides. Later sources win.
func configSources(path string) []config.Source {
	srcs := []config.Source{config.FromYaml(render(bytes.NewReader(baseConfig)))}
	if path != "" {
		srcs = append(srcs, fileSource(path))
	}
	return append(srcs, config.FromEnv(EnvPrefix))
}
