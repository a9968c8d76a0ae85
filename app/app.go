// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app provides middleware style helpers for [keystone.App]s.
package app

import (
	"context"
	"os"
	"os/signal"

	"github.com/z5labs/keystone"
	"github.com/z5labs/keystone/internal/try"
)

// Func is a func variant of [keystone.App].
type Func func(context.Context) error

// Run implements the [keystone.App] interface.
func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}

// Recover wraps the given [keystone.App] so that a panic from its Run
// method is returned as an error. Panic values which are not errors
// are wrapped in a [try.PanicError].
func Recover(app keystone.App) keystone.App {
	return Func(func(ctx context.Context) (err error) {
		defer try.Recover(&err)

		return app.Run(ctx)
	})
}

// WithSignalNotifications cancels the [context.Context] passed to app.Run
// once any of the given signals is received.
func WithSignalNotifications(app keystone.App, signals ...os.Signal) keystone.App {
	return Func(func(ctx context.Context) error {
		sigCtx, cancel := signal.NotifyContext(ctx, signals...)
		defer cancel()

		return app.Run(sigCtx)
	})
}

// PostRun wraps app so that hook is always executed once app.Run returns,
// even if it fails or panics. Errors from both are joined.
func PostRun(app keystone.App, hook Hook) keystone.App {
	return Func(func(ctx context.Context) (err error) {
		defer runHook(ctx, hook, &err)

		return app.Run(ctx)
	})
}

func runHook(ctx context.Context, hook Hook, err *error) {
	if hook == nil {
		return
	}

	// a panicking app still gets its post run hook executed
	r := recover()

	hookErr := hook.Run(context.WithoutCancel(ctx))
	*err = joinErrs(*err, hookErr)

	if r != nil {
		panic(r)
	}
}
