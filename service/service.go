// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package service assembles the HTTP application from [settings.Settings].
package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/app"
	"github.com/z5labs/keystone/database"
	khttp "github.com/z5labs/keystone/http"
	"github.com/z5labs/keystone/http/correlation"
	"github.com/z5labs/keystone/http/httperr"
	"github.com/z5labs/keystone/http/httphealth"
	"github.com/z5labs/keystone/http/httplog"
	"github.com/z5labs/keystone/http/openapi"
	"github.com/z5labs/keystone/pkg/errreport"
	"github.com/z5labs/keystone/pkg/health"
	"github.com/z5labs/keystone/pkg/logging"
	"github.com/z5labs/keystone/pkg/slogfield"
	"github.com/z5labs/keystone/settings"

	"github.com/go-chi/chi/v5"
)

const sentryFlushTimeout = 2 * time.Second

// Deps are handed to every [MountFunc].
type Deps struct {
	Log    *slog.Logger
	DB     *database.Provider
	Errors *httperr.Translator
	Docs   *openapi.Document

	// Prefix is the versioned api prefix, API_V1_STR.
	Prefix string
}

// MountFunc registers additional routes.
type MountFunc func(ctx context.Context, r chi.Router, deps Deps) error

type options struct {
	logOut      io.Writer
	db          *database.Provider
	recoverOpts []httperr.RecoverOption
	reportOpts  []errreport.Option
	mounts      []MountFunc
}

// Option configures a [Service].
type Option func(*options)

// LogOutput sets where logs are written. Default is stdout.
func LogOutput(w io.Writer) Option {
	return func(o *options) {
		o.logOut = w
	}
}

// WithDatabase replaces the database provider which would otherwise be
// built from DATABASE_URI.
func WithDatabase(p *database.Provider) Option {
	return func(o *options) {
		o.db = p
	}
}

// WithRecoverOptions configures the outermost panic boundary.
func WithRecoverOptions(opts ...httperr.RecoverOption) Option {
	return func(o *options) {
		o.recoverOpts = append(o.recoverOpts, opts...)
	}
}

// WithErrorReporting configures the Sentry client enabled by SENTRY_DSN.
func WithErrorReporting(opts ...errreport.Option) Option {
	return func(o *options) {
		o.reportOpts = append(o.reportOpts, opts...)
	}
}

// Mount registers routes with the router once the standard ones are in place.
func Mount(f MountFunc) Option {
	return func(o *options) {
		o.mounts = append(o.mounts, f)
	}
}

// Service is the fully wired [http.Handler].
type Service struct {
	http.Handler

	log       *slog.Logger
	db        *database.Provider
	docs      *openapi.Document
	reporting bool
}

// New builds the router, every route and the middleware chain.
func New(ctx context.Context, s *settings.Settings, opts ...Option) (*Service, error) {
	o := &options{
		logOut: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	log := logging.New(o.logOut, logging.Options{
		Level: s.LogLevel,
		Dev:   s.LogDev,
	})

	db := o.db
	if db == nil {
		db = database.NewProvider(database.ConfigFrom(s), database.Logger(log))
	}

	svc := &Service{
		log: log,
		db:  db,
		docs: openapi.New(openapi.Info{
			Title:       s.AppTitle,
			Description: s.AppDescription,
			Version:     s.AppVersion,
			ServerURL:   s.RootPath,
		}),
	}

	reporting, err := errreport.Init(errreport.Config{
		DSN:              s.SentryDSN,
		Debug:            s.SentryDebug,
		SampleRate:       s.SentrySampleRate,
		TracesSampleRate: s.SentryTracesSampleRate,
		Environment:      s.Environment,
		Release:          s.AppVersion,
	}, o.reportOpts...)
	if err != nil {
		return nil, err
	}
	svc.reporting = reporting

	tr := httperr.NewTranslator(log)

	r := chi.NewRouter()
	r.NotFound(tr.NotFound().ServeHTTP)
	r.MethodNotAllowed(tr.MethodNotAllowed().ServeHTTP)
	r.Use(db.Middleware)

	err = svc.healthRoutes(r, s.APIPrefix)
	if err != nil {
		return nil, err
	}
	svc.docsRoutes(r, s)

	deps := Deps{
		Log:    log,
		DB:     db,
		Errors: tr,
		Docs:   svc.docs,
		Prefix: s.APIPrefix,
	}
	for _, mount := range o.mounts {
		err = mount(ctx, r, deps)
		if err != nil {
			return nil, err
		}
	}

	var h http.Handler = r
	h = httperr.LogUnhandled(log)(h)
	h = httplog.Bind(h)
	h = correlation.Middleware()(h)
	if len(s.CORSAllowOrigins) > 0 {
		h = allowOrigins(s.CORSAllowOrigins)(h)
	}
	if len(s.AllowedHosts) > 0 || s.HTTPSForceRedirect {
		h = secureHosts(s.AllowedHosts, s.HTTPSForceRedirect)(h)
	}
	if svc.reporting {
		h = errreport.Middleware(h)
	}
	h = httperr.Recoverer(o.recoverOpts...)(h)

	svc.Handler = h
	return svc, nil
}

func (svc *Service) healthRoutes(r chi.Router, prefix string) error {
	liveness := prefix + "/health/liveness"
	readiness := prefix + "/health/readiness"

	r.Method(http.MethodGet, liveness, khttp.RouteTag(liveness, httphealth.Liveness{}))
	r.Method(http.MethodGet, readiness, khttp.RouteTag(readiness, httphealth.NewReadiness(
		svc.log,
		health.Check{
			Name:   "database_connection",
			Metric: health.MetricFunc(svc.db.Healthy),
		},
	)))

	err := svc.docs.Add(openapi.Operation{
		Method:  http.MethodGet,
		Pattern: liveness,
		Summary: "Liveness probe",
		Tags:    []string{"health"},
		Responses: []openapi.Response{
			{Status: http.StatusOK, Body: httphealth.LivenessBody{}},
		},
	})
	if err != nil {
		return err
	}
	return svc.docs.Add(openapi.Operation{
		Method:  http.MethodGet,
		Pattern: readiness,
		Summary: "Readiness probe",
		Tags:    []string{"health"},
		Responses: []openapi.Response{
			{Status: http.StatusOK, Body: health.Report{}},
			{Status: http.StatusServiceUnavailable, Body: health.Report{}},
		},
	})
}

// docsRoutes serves the document and its pages. An empty OPENAPI_URL
// disables all of them.
func (svc *Service) docsRoutes(r chi.Router, s *settings.Settings) {
	if s.OpenAPIURL == "" {
		return
	}

	r.Method(http.MethodGet, s.OpenAPIURL, svc.docs.Handler())
	if yamlURL, ok := strings.CutSuffix(s.OpenAPIURL, ".json"); ok {
		r.Method(http.MethodGet, yamlURL+".yaml", svc.docs.YAMLHandler())
	}

	specURL := strings.TrimSuffix(s.RootPath, "/") + s.OpenAPIURL
	if s.DocsURL != "" {
		r.Method(http.MethodGet, s.DocsURL, openapi.SwaggerUI(s.AppTitle+" - Swagger UI", specURL))
	}
	if s.RedocURL != "" {
		r.Method(http.MethodGet, s.RedocURL, openapi.Redoc(s.AppTitle+" - ReDoc", specURL))
	}
}

// Log returns the logger every component of the service writes to.
func (svc *Service) Log() *slog.Logger {
	return svc.log
}

// Close releases the database pool and flushes buffered error reports.
func (svc *Service) Close() error {
	if svc.reporting && !errreport.Flush(sentryFlushTimeout) {
		svc.log.Warn("timed out flushing error reports")
	}
	return svc.db.Close()
}

// Builder returns a [keystone.AppBuilder] serving a [Service] over HTTP.
// The service is closed once the server has shutdown.
func Builder(opts ...Option) keystone.AppBuilder[settings.Settings] {
	return keystone.AppBuilderFunc[settings.Settings](func(ctx context.Context, s settings.Settings) (keystone.App, error) {
		svc, err := New(ctx, &s, opts...)
		if err != nil {
			return nil, err
		}

		rt := khttp.NewRuntime(
			svc,
			khttp.ListenOn(s.Addr()),
			khttp.LogHandler(svc.log.Handler()),
			khttp.ShutdownTimeout(s.ShutdownTimeout),
		)

		closeSvc := app.HookFunc(func(ctx context.Context) error {
			err := svc.Close()
			if err != nil {
				svc.log.ErrorContext(ctx, "failed to close service", slogfield.Error(err))
			}
			return err
		})

		lc, ok := app.FromContext(ctx)
		if !ok {
			return app.PostRun(rt, closeSvc), nil
		}
		lc.OnPostRun(closeSvc)
		return rt, nil
	})
}
