// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settings

import (
	"context"

	"github.com/z5labs/keystone/pkg/otelconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// InitializeOTel installs the global tracer provider selected by
// OTEL_TRACES_EXPORTER along with W3C trace context propagation.
func (s Settings) InitializeOTel(ctx context.Context) error {
	tp, err := otelconfig.NewTracerProvider(
		ctx,
		s.OTelTracesExporter,
		otelconfig.Endpoint(s.OTelOTLPEndpoint),
		otelconfig.ServiceName(s.AppTitle),
		otelconfig.ServiceVersion(s.AppVersion),
	)
	if err != nil {
		return err
	}
	if tp != nil {
		otel.SetTracerProvider(tp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}
