// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package server

import (
	"log/slog"
	"time"

	"github.com/z5labs/tickhttp/codec"
	"github.com/z5labs/tickhttp/pkg/noop"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultKeepAliveTimeout is advertised in the Keep-Alive header.
	DefaultKeepAliveTimeout = 30 * time.Second

	// DefaultKeepAliveMax is advertised in the Keep-Alive header.
	DefaultKeepAliveMax = 1000

	// DefaultContentType is set on responses which carry none.
	DefaultContentType = "text/html; charset=utf-8"
)

type options struct {
	log              *slog.Logger
	responseTimeout  time.Duration
	keepAliveTimeout time.Duration
	keepAliveMax     int
	contentType      string
	maxBodyBytes     int64
	tracerProvider   trace.TracerProvider
	meterProvider    metric.MeterProvider
}

func defaultOptions() options {
	return options{
		log:              noop.Logger(),
		keepAliveTimeout: DefaultKeepAliveTimeout,
		keepAliveMax:     DefaultKeepAliveMax,
		contentType:      DefaultContentType,
		maxBodyBytes:     codec.DefaultMaxBodyBytes,
		tracerProvider:   otel.GetTracerProvider(),
		meterProvider:    otel.GetMeterProvider(),
	}
}

// Option configures a [Server] and the connection workers it spawns.
type Option func(*options)

// Logger sets the logger. By default nothing is logged.
func Logger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// ResponseTimeout bounds how long a connection worker waits for the
// response to a published request. Zero, the default, waits forever.
func ResponseTimeout(d time.Duration) Option {
	return func(o *options) {
		o.responseTimeout = d
	}
}

// KeepAliveHint sets the timeout and max parameters advertised in the
// Keep-Alive response header.
func KeepAliveHint(timeout time.Duration, max int) Option {
	return func(o *options) {
		o.keepAliveTimeout = timeout
		o.keepAliveMax = max
	}
}

// ContentType sets the Content-Type given to responses which carry none.
func ContentType(contentType string) Option {
	return func(o *options) {
		o.contentType = contentType
	}
}

// MaxBodyBytes bounds the size of request bodies.
func MaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// TracerProvider overrides the globally registered tracer provider.
func TracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// MeterProvider overrides the globally registered meter provider.
func MeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}
