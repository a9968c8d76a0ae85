// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otelconfig builds an OpenTelemetry tracer provider from the
// name of a traces exporter.
package otelconfig

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

type config struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	out            io.Writer
}

// Option configures [NewTracerProvider].
type Option func(*config)

// ServiceName sets the service.name resource attribute.
func ServiceName(name string) Option {
	return func(c *config) {
		c.serviceName = name
	}
}

// ServiceVersion sets the service.version resource attribute.
func ServiceVersion(version string) Option {
	return func(c *config) {
		c.serviceVersion = version
	}
}

// Endpoint is the host:port of the collector's gRPC receiver.
func Endpoint(hostport string) Option {
	return func(c *config) {
		c.endpoint = hostport
	}
}

// Writer replaces stdout for the stdout exporter.
func Writer(w io.Writer) Option {
	return func(c *config) {
		c.out = w
	}
}

// UnknownExporterError is returned for an exporter name other than
// the Exporter constants.
type UnknownExporterError struct {
	Name string
}

func (e UnknownExporterError) Error() string {
	return fmt.Sprintf("unknown traces exporter: %q", e.Name)
}

// NewTracerProvider returns nil for [ExporterNone], or an empty name,
// so the caller keeps whatever provider is already installed.
//
// The otlp exporter dials lazily, an unreachable collector never
// blocks startup.
func NewTracerProvider(ctx context.Context, exporter string, opts ...Option) (*sdktrace.TracerProvider, error) {
	cfg := config{out: os.Stdout}
	for _, opt := range opts {
		opt(&cfg)
	}

	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch exporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		exp, err = stdouttrace.New(stdouttrace.WithWriter(cfg.out))
	case ExporterOTLP:
		exp, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpoint(cfg.endpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, UnknownExporterError{Name: exporter}
	}
	if err != nil {
		return nil, err
	}

	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func (c config) resource(ctx context.Context) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceName(c.serviceName)}
	if c.serviceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(c.serviceVersion))
	}
	return resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
}
