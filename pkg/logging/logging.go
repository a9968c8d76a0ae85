// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"

	"github.com/z5labs/keystone/pkg/logctx"
	"github.com/z5labs/keystone/pkg/maskslog"
)

// Options
type Options struct {
	Level slog.Leveler

	// Dev switches to human readable text output with source locations.
	Dev bool
}

// New returns a logger writing to w. Records include any fields bound
// to their context with [logctx] and never contain secret settings.
func New(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Dev,
	}

	var h slog.Handler
	if opts.Dev {
		h = slog.NewTextHandler(w, ho)
	} else {
		h = slog.NewJSONHandler(w, ho)
	}

	h = maskslog.NewHandler(
		h,
		maskslog.Attr("database_uri", maskslog.URLPassword),
		maskslog.Redact("sentry_dsn", "password", "authorization"),
	)
	return logctx.NewLogger(h)
}
