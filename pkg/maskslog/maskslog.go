// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package maskslog provides a [slog.Handler] which rewrites sensitive
// messages and attributes before they reach the wrapped handler.
package maskslog

import (
	"context"
	"log/slog"
	"net/netip"
)

type options struct {
	attrTransformers map[string]func(slog.Attr) slog.Attr
	msgTransformers  []func(string) string
}

// Option helps configure the Handler.
type Option interface {
	applyOption(*options)
}

type optionFunc func(*options)

func (f optionFunc) applyOption(opts *options) {
	f(opts)
}

// Message registers a function for masking slog.Record messages.
func Message(f func(string) string) Option {
	return optionFunc(func(o *options) {
		o.msgTransformers = append(o.msgTransformers, f)
	})
}

// Attr registers a function for masking a slog.Attr given its key.
// Registering the same key twice replaces the earlier function.
func Attr(key string, f func(slog.Attr) slog.Attr) Option {
	return optionFunc(func(o *options) {
		o.attrTransformers[key] = f
	})
}

// AnonymousStringAttr is a helper function for converting any slog.Attr
// into the anonymized string, "****". It completely ignores the given
// slog.Attr value type and always return a string value.
func AnonymousStringAttr(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// TruncateAddr masks the host part of an "ip:port" or "ip" string value,
// keeping the /24 of IPv4 and the /48 of IPv6 addresses. Values which
// are not IP addresses are replaced by "****".
func TruncateAddr(a slog.Attr) slog.Attr {
	s := a.Value.String()
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return slog.String(a.Key, netip.AddrPortFrom(truncate(ap.Addr()), ap.Port()).String())
	}
	if ip, err := netip.ParseAddr(s); err == nil {
		return slog.String(a.Key, truncate(ip).String())
	}
	return AnonymousStringAttr(a)
}

func truncate(ip netip.Addr) netip.Addr {
	bits := 48
	if ip.Is4() || ip.Is4In6() {
		ip = ip.Unmap()
		bits = 24
	}
	p, err := ip.Prefix(bits)
	if err != nil {
		return ip
	}
	return p.Addr()
}

// Handler is an slog.Handler.
type Handler struct {
	slog slog.Handler

	attrTransformers map[string]func(slog.Attr) slog.Attr
	msgTransformers  []func(string) string
}

// NewHandler returns a new Handler.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	o := &options{
		attrTransformers: make(map[string]func(slog.Attr) slog.Attr),
	}
	for _, opt := range opts {
		opt.applyOption(o)
	}
	return &Handler{
		slog:             h,
		attrTransformers: o.attrTransformers,
		msgTransformers:  o.msgTransformers,
	}
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.msgTransformers) == 0 && len(h.attrTransformers) == 0 {
		return h.slog.Handle(ctx, record)
	}

	msg := record.Message
	for _, f := range h.msgTransformers {
		msg = f(msg)
	}

	nr := slog.NewRecord(record.Time, record.Level, msg, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(h.mask(a))
		return true
	})
	return h.slog.Handle(ctx, nr)
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	f, ok := h.attrTransformers[a.Key]
	if !ok {
		return a
	}
	return f(a)
}

func (h *Handler) with(sh slog.Handler) *Handler {
	return &Handler{
		slog:             sh,
		attrTransformers: h.attrTransformers,
		msgTransformers:  h.msgTransformers,
	}
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nr := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		nr[i] = h.mask(a)
	}
	return h.with(h.slog.WithAttrs(nr))
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return h.with(h.slog.WithGroup(name))
}
