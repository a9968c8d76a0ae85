// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package appbuilder

import (
	"context"
	"errors"
	"testing"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/app"
	"github.com/z5labs/keystone/internal/try"

	"github.com/stretchr/testify/assert"
)

func TestRecover(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the underlying builder panics", func(t *testing.T) {
			builder := Recover(keystone.AppBuilderFunc[int](func(ctx context.Context, cfg int) (keystone.App, error) {
				panic("boom")
			}))

			_, err := builder.Build(context.Background(), 0)

			var perr try.PanicError
			if !assert.ErrorAs(t, err, &perr) {
				return
			}
			if !assert.Equal(t, "boom", perr.Value) {
				return
			}
		})
	})
}

func TestLifecycleContext(t *testing.T) {
	t.Run("will run post run hooks", func(t *testing.T) {
		t.Run("after the built app returns", func(t *testing.T) {
			var events []string
			builder := LifecycleContext(keystone.AppBuilderFunc[int](func(ctx context.Context, cfg int) (keystone.App, error) {
				lc, ok := app.FromContext(ctx)
				if !ok {
					return nil, errors.New("missing lifecycle")
				}
				lc.OnPostRun(app.HookFunc(func(ctx context.Context) error {
					events = append(events, "post run")
					return nil
				}))

				return app.Func(func(ctx context.Context) error {
					events = append(events, "run")
					return nil
				}), nil
			}))

			a, err := builder.Build(context.Background(), 0)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, events) {
				return
			}

			err = a.Run(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, []string{"run", "post run"}, events) {
				return
			}
		})

		t.Run("if the builder fails", func(t *testing.T) {
			buildErr := errors.New("failed to build")
			hookErr := errors.New("failed to close")

			builder := LifecycleContext(keystone.AppBuilderFunc[int](func(ctx context.Context, cfg int) (keystone.App, error) {
				lc, _ := app.FromContext(ctx)
				lc.OnPostRun(app.HookFunc(func(ctx context.Context) error {
					return hookErr
				}))
				return nil, buildErr
			}))

			_, err := builder.Build(context.Background(), 0)
			if !assert.ErrorIs(t, err, buildErr) {
				return
			}
			if !assert.ErrorIs(t, err, hookErr) {
				return
			}
		})
	})
}
