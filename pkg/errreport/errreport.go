// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package errreport reports unhandled panics to Sentry.
package errreport

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
)

// Config
type Config struct {
	DSN              string
	Debug            bool
	SampleRate       float64
	TracesSampleRate float64
	Environment      string
	Release          string
}

// Option
type Option func(*sentry.ClientOptions)

// WithTransport replaces the transport events are sent with.
func WithTransport(t sentry.Transport) Option {
	return func(co *sentry.ClientOptions) {
		co.Transport = t
	}
}

// Init configures the global Sentry client. It reports false, and does
// nothing, when cfg has no DSN.
func Init(cfg Config, opts ...Option) (bool, error) {
	if cfg.DSN == "" {
		return false, nil
	}

	co := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Debug:            cfg.Debug,
		SampleRate:       cfg.SampleRate,
		TracesSampleRate: cfg.TracesSampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		AttachStacktrace: true,
	}
	for _, opt := range opts {
		opt(&co)
	}

	err := sentry.Init(co)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Middleware reports panics raised by next and then panics again with
// the same value so outer recovery still sees it.
func Middleware(next http.Handler) http.Handler {
	h := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
	})
	return h.Handle(next)
}

// Flush waits up to timeout for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
