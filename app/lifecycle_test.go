// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiHook(t *testing.T) {
	t.Run("will return an error", func(t *testing.T) {
		t.Run("if a single hook fails", func(t *testing.T) {
			hookErr := errors.New("failed to run hook")

			var calls int
			ok := HookFunc(func(ctx context.Context) error {
				calls++
				return nil
			})

			hook := MultiHook(ok, HookFunc(func(ctx context.Context) error {
				calls++
				return hookErr
			}), ok)

			err := hook.Run(context.Background())
			if !assert.Equal(t, hookErr, err) {
				return
			}
			if !assert.Equal(t, 3, calls) {
				return
			}
		})

		t.Run("if multiple hooks fail", func(t *testing.T) {
			errOne := errors.New("one")
			errTwo := errors.New("two")

			hook := MultiHook(
				HookFunc(func(ctx context.Context) error { return errOne }),
				HookFunc(func(ctx context.Context) error { return errTwo }),
			)

			err := hook.Run(context.Background())
			if !assert.ErrorIs(t, err, errOne) {
				return
			}
			if !assert.ErrorIs(t, err, errTwo) {
				return
			}
		})
	})
}

func TestLifecycle(t *testing.T) {
	t.Run("will run post run hooks in reverse registration order", func(t *testing.T) {
		var order []string
		record := func(name string) Hook {
			return HookFunc(func(ctx context.Context) error {
				order = append(order, name)
				return nil
			})
		}

		lc := &Lifecycle{}
		lc.OnPostRun(record("database"))
		lc.OnPostRun(record("tracing"))

		err := lc.PostRun().Run(context.Background())
		if !assert.Nil(t, err) {
			return
		}
		if !assert.Equal(t, []string{"tracing", "database"}, order) {
			return
		}
	})

	t.Run("will be retrievable from a context", func(t *testing.T) {
		t.Run("if it was stored with NewContext", func(t *testing.T) {
			lc := &Lifecycle{}
			ctx := NewContext(context.Background(), lc)

			got, ok := FromContext(ctx)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Same(t, lc, got) {
				return
			}
		})
	})

	t.Run("will not be found", func(t *testing.T) {
		t.Run("if the context was never given one", func(t *testing.T) {
			_, ok := FromContext(context.Background())
			if !assert.False(t, ok) {
				return
			}
		})
	})
}
