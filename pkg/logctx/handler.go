// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logctx

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Handler decorates records with the fields bound to their context and,
// while a span is recording, an "otel" group holding its trace and span ids.
type Handler struct {
	slog.Handler
}

// NewHandler wraps h.
func NewHandler(h slog.Handler) *Handler {
	return &Handler{Handler: h}
}

// NewLogger is shorthand for slog.New(NewHandler(h)).
func NewLogger(h slog.Handler) *slog.Logger {
	return slog.New(NewHandler(h))
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	attrs := Fields(ctx)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs[:len(attrs):len(attrs)], slog.Group("otel",
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		))
	}
	if len(attrs) > 0 {
		record = record.Clone()
		record.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, record)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewHandler(h.Handler.WithAttrs(attrs))
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return NewHandler(h.Handler.WithGroup(name))
}
