// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package appbuilder provides middleware for [keystone.AppBuilder]s.
package appbuilder

import (
	"context"
	"errors"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/app"
	"github.com/z5labs/keystone/internal/try"
)

// Recover wraps the given [keystone.AppBuilder] so that a panic during
// Build is returned as an error.
func Recover[T any](builder keystone.AppBuilder[T]) keystone.AppBuilder[T] {
	return keystone.AppBuilderFunc[T](func(ctx context.Context, cfg T) (_ keystone.App, err error) {
		defer try.Recover(&err)

		return builder.Build(ctx, cfg)
	})
}

// LifecycleContext makes an [app.Lifecycle] available to builder through
// the build context. Post run hooks registered on it run once the built
// [keystone.App] returns, or immediately if builder fails.
func LifecycleContext[T any](builder keystone.AppBuilder[T]) keystone.AppBuilder[T] {
	return keystone.AppBuilderFunc[T](func(ctx context.Context, cfg T) (keystone.App, error) {
		lc := &app.Lifecycle{}
		ctx = app.NewContext(ctx, lc)

		base, err := builder.Build(ctx, cfg)
		if err != nil {
			return nil, joinHookErr(ctx, err, lc.PostRun())
		}
		postRun := app.HookFunc(func(ctx context.Context) error {
			return lc.PostRun().Run(ctx)
		})
		return app.PostRun(base, postRun), nil
	})
}

func joinHookErr(ctx context.Context, err error, hook app.Hook) error {
	hookErr := hook.Run(context.WithoutCancel(ctx))
	if hookErr == nil {
		return err
	}
	return errors.Join(err, hookErr)
}
