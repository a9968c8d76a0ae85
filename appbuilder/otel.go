// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/app"

	"go.opentelemetry.io/otel"
)

// OTelInitializer represents anything which can initialize the OTel SDK.
type OTelInitializer interface {
	InitializeOTel(context.Context) error
}

// OTel initializes the OTel SDK before building. The global tracer
// provider is shutdown once the built [keystone.App] stops running.
func OTel[T OTelInitializer](builder keystone.AppBuilder[T]) keystone.AppBuilder[T] {
	return keystone.AppBuilderFunc[T](func(ctx context.Context, cfg T) (keystone.App, error) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		err := cfg.InitializeOTel(ctx)
		if err != nil {
			return nil, err
		}

		shutdown := tryShutdown(otel.GetTracerProvider())

		base, err := builder.Build(ctx, cfg)
		if err != nil {
			shutdownErr := shutdown.Run(ctx)
			if shutdownErr == nil {
				return nil, err
			}
			return nil, errors.Join(err, shutdownErr)
		}

		lc, ok := app.FromContext(ctx)
		if !ok {
			return app.PostRun(base, shutdown), nil
		}

		lc.OnPostRun(shutdown)
		return base, nil
	})
}

type shutdowner interface {
	Shutdown(context.Context) error
}

func tryShutdown(v any) app.HookFunc {
	return func(ctx context.Context) error {
		s, ok := v.(shutdowner)
		if !ok {
			return nil
		}
		return s.Shutdown(ctx)
	}
}
