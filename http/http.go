// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http provides the HTTP server runtime and a retrying client.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/keystone/pkg/noop"
	"github.com/z5labs/keystone/pkg/slogfield"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

type runtimeOptions struct {
	addr            string
	logHandler      slog.Handler
	tlsConfig       *tls.Config
	shutdownTimeout time.Duration
}

// RuntimeOption configures [NewRuntime].
type RuntimeOption func(*runtimeOptions)

// ListenOn sets the TCP address to serve on. Defaults to ":8080".
func ListenOn(addr string) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.addr = addr
	}
}

// LogHandler sets where server lifecycle events are logged.
// They are discarded by default.
func LogHandler(h slog.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.logHandler = h
	}
}

// TLSConfig serves HTTPS instead of plain HTTP.
func TLSConfig(cfg *tls.Config) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.tlsConfig = cfg
	}
}

// ShutdownTimeout bounds how long in flight requests are given to finish
// once the runtime is asked to stop. Zero waits forever.
func ShutdownTimeout(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.shutdownTimeout = d
	}
}

// Runtime serves a [http.Handler] until its context is cancelled.
type Runtime struct {
	addr   string
	listen func(network, addr string) (net.Listener, error)
	log    *slog.Logger

	tlsConfig       *tls.Config
	shutdownTimeout time.Duration
	h               http.Handler
}

// NewRuntime returns a [Runtime] serving h. Every request is traced.
func NewRuntime(h http.Handler, opts ...RuntimeOption) *Runtime {
	ro := runtimeOptions{
		addr:            ":8080",
		logHandler:      noop.LogHandler{},
		shutdownTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&ro)
	}

	return &Runtime{
		addr:            ro.addr,
		listen:          net.Listen,
		log:             slog.New(ro.logHandler),
		tlsConfig:       ro.tlsConfig,
		shutdownTimeout: ro.shutdownTimeout,
		h:               otelhttp.NewHandler(h, "server", otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents)),
	}
}

// Run serves until ctx is done and then drains in flight requests. It
// only fails if the listener does.
func (rt *Runtime) Run(ctx context.Context) error {
	ls, err := rt.listener()
	if err != nil {
		rt.log.ErrorContext(ctx, "failed to listen for connections", slogfield.Error(err))
		return err
	}

	srv := &http.Server{
		Handler:           rt.h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.InfoContext(ctx, "starting server", slog.String("addr", ls.Addr().String()))
		return srv.Serve(ls)
	})
	g.Go(func() error {
		<-gctx.Done()
		return rt.drain(srv)
	})

	err = g.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		rt.log.ErrorContext(ctx, "server encountered unexpected error", slogfield.Error(err))
	}
	return err
}

func (rt *Runtime) listener() (net.Listener, error) {
	ls, err := rt.listen("tcp", rt.addr)
	if err != nil || rt.tlsConfig == nil {
		return ls, err
	}
	return tls.NewListener(ls, rt.tlsConfig), nil
}

func (rt *Runtime) drain(srv *http.Server) error {
	ctx := context.Background()
	if rt.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.shutdownTimeout)
		defer cancel()
	}

	rt.log.Info("shutting down", slog.Duration("timeout", rt.shutdownTimeout))
	err := srv.Shutdown(ctx)
	if err != nil {
		return err
	}
	rt.log.Info("shut down server")
	return nil
}

// RouteTag labels the request span with the route pattern h is
// registered under.
func RouteTag(pattern string, h http.Handler) http.Handler {
	return otelhttp.WithRouteTag(pattern, h)
}
