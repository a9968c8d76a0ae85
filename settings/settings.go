// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package settings defines the process wide configuration of a keystone service.
package settings

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/z5labs/keystone/config"
)

// DatabaseURLAlias is accepted in place of DATABASE_URI. Many hosting
// platforms inject DATABASE_URL.
const DatabaseURLAlias = "DATABASE_URL"

// Settings is immutable once loaded.
type Settings struct {
	AppTitle       string `config:"APP_TITLE"`
	AppDescription string `config:"APP_DESCRIPTION"`
	AppVersion     string `config:"APP_VERSION"`

	Host        string     `config:"HOST" validate:"required"`
	Port        int        `config:"PORT" validate:"min=1,max=65535"`
	Environment string     `config:"ENVIRONMENT" validate:"required"`
	LogLevel    slog.Level `config:"LOG_LEVEL"`
	LogDev      bool       `config:"LOG_DEV"`

	APIPrefix           string `config:"API_V1_STR" validate:"omitempty,startswith=/"`
	RootPath            string `config:"ROOT_PATH"`
	OpenAPIURL          string `config:"OPENAPI_URL" validate:"omitempty,startswith=/"`
	DocsURL             string `config:"DOCS_URL" validate:"omitempty,startswith=/"`
	RedocURL            string `config:"REDOC_URL" validate:"omitempty,startswith=/"`
	HealthcheckEndpoint string `config:"HEALTHCHECK_ENDPOINT" validate:"required"`

	HealthcheckHost    string        `config:"HEALTHCHECK_HOST" validate:"required"`
	HealthcheckTimeout time.Duration `config:"HEALTHCHECK_TIMEOUT" validate:"gt=0"`
	HealthcheckRetries int           `config:"HEALTHCHECK_RETRIES" validate:"min=0"`

	AllowedHosts       []string      `config:"ALLOWED_HOSTS"`
	CORSAllowOrigins   []string      `config:"CORS_ALLOW_ORIGINS" validate:"dive,http_url"`
	HTTPSForceRedirect bool          `config:"HTTPS_FORCE_REDIRECT"`
	ShutdownTimeout    time.Duration `config:"SHUTDOWN_TIMEOUT" validate:"gt=0"`

	DatabaseURI         string        `config:"DATABASE_URI" validate:"required,dburl"`
	DatabasePoolSize    int           `config:"DATABASE_POOL_SIZE" validate:"min=0"`
	DatabaseMaxOverflow int           `config:"DATABASE_MAX_OVERFLOW" validate:"min=0"`
	DatabasePoolTimeout time.Duration `config:"DATABASE_POOL_TIMEOUT" validate:"gt=0"`
	DatabaseEcho        bool          `config:"DATABASE_ECHO"`

	SentryDSN              string  `config:"SENTRY_DSN" validate:"omitempty,url"`
	SentryDebug            bool    `config:"SENTRY_DEBUG"`
	SentrySampleRate       float64 `config:"SENTRY_SAMPLE_RATE" validate:"gte=0,lte=1"`
	SentryTracesSampleRate float64 `config:"SENTRY_TRACES_SAMPLE_RATE" validate:"gte=0,lte=1"`

	OTelTracesExporter string `config:"OTEL_TRACES_EXPORTER" validate:"oneof=none stdout otlp"`
	OTelOTLPEndpoint   string `config:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Defaults returns the value of every optional setting when no
// source provides one.
func Defaults() config.Map {
	return config.Map{
		"APP_TITLE":       "Keystone",
		"APP_DESCRIPTION": "HTTP service starter",
		"APP_VERSION":     "0.1.0",

		"HOST":      "127.0.0.1",
		"PORT":      8000,
		"LOG_LEVEL": "INFO",
		"LOG_DEV":   false,

		"API_V1_STR":           "/api/v1",
		"ROOT_PATH":            "/",
		"OPENAPI_URL":          "/openapi.json",
		"DOCS_URL":             "/docs",
		"REDOC_URL":            "/redoc",
		"HEALTHCHECK_ENDPOINT": "/api/v1/health/liveness",

		"HEALTHCHECK_HOST":    "localhost",
		"HEALTHCHECK_TIMEOUT": "5s",
		"HEALTHCHECK_RETRIES": 0,

		"ALLOWED_HOSTS":        []string{},
		"CORS_ALLOW_ORIGINS":   []string{},
		"HTTPS_FORCE_REDIRECT": false,
		"SHUTDOWN_TIMEOUT":     "10s",

		"DATABASE_POOL_SIZE":    10,
		"DATABASE_MAX_OVERFLOW": 0,
		"DATABASE_POOL_TIMEOUT": "30s",
		"DATABASE_ECHO":         false,

		"SENTRY_DEBUG":              false,
		"SENTRY_SAMPLE_RATE":        1.0,
		"SENTRY_TRACES_SAMPLE_RATE": 0.1,

		"OTEL_TRACES_EXPORTER":        "none",
		"OTEL_EXPORTER_OTLP_ENDPOINT": "localhost:4317",
	}
}

// Aliases lists the alternate names accepted for settings.
func Aliases() config.Aliases {
	return config.Alias(DatabaseURLAlias, "DATABASE_URI")
}

// Fingerprint is a stable hash over every field value. Two settings
// with the same fingerprint are interchangeable as cache keys.
func (s *Settings) Fingerprint() string {
	h := sha256.New()
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := range t.NumField() {
		fmt.Fprintf(h, "%s=%#v;", t.Field(i).Name, v.Field(i).Interface())
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Equal reports whether both settings hold the same field values.
func (s *Settings) Equal(other *Settings) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Fingerprint() == other.Fingerprint()
}

// Addr returns the host:port the server binds to.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
