// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logctx carries structured log fields in a context.Context so every
// record logged with that context, by any logger built on [Handler], includes them.
//
// Fields live in the context, not in a shared map, so concurrent requests
// never observe each other's fields.
package logctx

import (
	"context"
	"log/slog"
)

type fieldsKey struct{}

// New returns a copy of ctx whose field set is exactly attrs. Any fields
// bound by a parent context are dropped.
func New(ctx context.Context, attrs ...slog.Attr) context.Context {
	fs := make([]slog.Attr, len(attrs))
	copy(fs, attrs)
	return context.WithValue(ctx, fieldsKey{}, fs)
}

// Clear returns a copy of ctx with no bound fields.
func Clear(ctx context.Context) context.Context {
	return context.WithValue(ctx, fieldsKey{}, []slog.Attr(nil))
}

// With returns a copy of ctx with attrs appended to the fields already
// bound. A later attr replaces an earlier one with the same key.
func With(ctx context.Context, attrs ...slog.Attr) context.Context {
	parent := Fields(ctx)
	fs := make([]slog.Attr, 0, len(parent)+len(attrs))
	for _, a := range parent {
		if hasKey(attrs, a.Key) {
			continue
		}
		fs = append(fs, a)
	}
	fs = append(fs, attrs...)
	return context.WithValue(ctx, fieldsKey{}, fs)
}

// Fields returns the fields bound to ctx. The returned slice must not be modified.
func Fields(ctx context.Context) []slog.Attr {
	fs, _ := ctx.Value(fieldsKey{}).([]slog.Attr)
	return fs
}

func hasKey(attrs []slog.Attr, key string) bool {
	for _, a := range attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}
