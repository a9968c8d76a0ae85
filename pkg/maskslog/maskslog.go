// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package maskslog keeps secrets out of structured logs.
package maskslog

import (
	"context"
	"log/slog"
	"net/url"
)

// Masker rewrites an attribute before it's handed to the next handler.
type Masker func(slog.Attr) slog.Attr

// Option helps configure the Handler.
type Option func(map[string]Masker)

// Attr registers a [Masker] for every attribute with the given key.
func Attr(key string, m Masker) Option {
	return func(ms map[string]Masker) {
		ms[key] = m
	}
}

// Redact replaces the value of every attribute with one of the given keys.
func Redact(keys ...string) Option {
	return func(ms map[string]Masker) {
		for _, k := range keys {
			ms[k] = Anonymous
		}
	}
}

// Anonymous replaces any value with "****".
func Anonymous(a slog.Attr) slog.Attr {
	return slog.String(a.Key, "****")
}

// URLPassword keeps a URL readable but replaces its password with "xxxxx".
// Values which aren't URLs are fully anonymized.
func URLPassword(a slog.Attr) slog.Attr {
	u, err := url.Parse(a.Value.String())
	if err != nil {
		return Anonymous(a)
	}
	return slog.String(a.Key, u.Redacted())
}

// Handler is an slog.Handler.
type Handler struct {
	slog    slog.Handler
	maskers map[string]Masker
}

// NewHandler returns a new Handler.
func NewHandler(h slog.Handler, opts ...Option) *Handler {
	ms := make(map[string]Masker)
	for _, opt := range opts {
		opt(ms)
	}
	return &Handler{
		slog:    h,
		maskers: ms,
	}
}

// Enabled implements the slog.Handler interface.
func (h *Handler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.slog.Enabled(ctx, lvl)
}

// Handle implements the slog.Handler interface.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if len(h.maskers) == 0 || record.NumAttrs() == 0 {
		return h.slog.Handle(ctx, record)
	}

	nr := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		nr.AddAttrs(h.mask(a))
		return true
	})
	return h.slog.Handle(ctx, nr)
}

func (h *Handler) mask(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		masked := make([]any, len(group))
		for i, ga := range group {
			masked[i] = h.mask(ga)
		}
		return slog.Group(a.Key, masked...)
	}
	m, ok := h.maskers[a.Key]
	if !ok {
		return a
	}
	return m(a)
}

// WithAttrs implements the slog.Handler interface.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}
	return &Handler{
		slog:    h.slog.WithAttrs(masked),
		maskers: h.maskers,
	}
}

// WithGroup implements the slog.Handler interface.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{
		slog:    h.slog.WithGroup(name),
		maskers: h.maskers,
	}
}
