// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package keystone

import (
	"context"

	"github.com/z5labs/keystone/config"
)

// App is a runnable unit of work, usually a server.
type App interface {
	Run(context.Context) error
}

// AppBuilder turns a config value into an [App].
type AppBuilder[T any] interface {
	Build(ctx context.Context, cfg T) (App, error)
}

// AppBuilderFunc adapts a func to [AppBuilder].
type AppBuilderFunc[T any] func(context.Context, T) (App, error)

func (f AppBuilderFunc[T]) Build(ctx context.Context, cfg T) (App, error) {
	return f(ctx, cfg)
}

// Validator is checked by [Run] after the config has been decoded.
// Implement it on the pointer receiver of the config type.
type Validator interface {
	Validate() error
}

// Run merges srcs into a T, validates it, builds the [App] and runs it
// until it returns. Each stage wraps its failure in its own error type
// so callers can tell, for example, bad config apart from a crash.
func Run[T any](ctx context.Context, builder AppBuilder[T], srcs ...config.Source) error {
	cfg, err := load[T](srcs)
	if err != nil {
		return err
	}

	app, err := builder.Build(ctx, cfg)
	if err != nil {
		return AppBuildError{Cause: err}
	}
	if err := app.Run(ctx); err != nil {
		return AppRunError{Cause: err}
	}
	return nil
}

func load[T any](srcs []config.Source) (cfg T, err error) {
	m, err := config.Read(srcs...)
	if err != nil {
		return cfg, ConfigReadError{Cause: err}
	}
	if err := m.Unmarshal(&cfg); err != nil {
		return cfg, ConfigUnmarshalError{Cause: err}
	}
	if v, ok := any(&cfg).(Validator); ok {
		if err := v.Validate(); err != nil {
			return cfg, ConfigValidateError{Cause: err}
		}
	}
	return cfg, nil
}

// ConfigReadError means a config source could not be applied.
type ConfigReadError struct{ Cause error }

func (e ConfigReadError) Error() string { return "failed to read config: " + e.Cause.Error() }
func (e ConfigReadError) Unwrap() error { return e.Cause }

// ConfigUnmarshalError means the merged config did not fit the config type.
type ConfigUnmarshalError struct{ Cause error }

func (e ConfigUnmarshalError) Error() string { return "failed to decode config: " + e.Cause.Error() }
func (e ConfigUnmarshalError) Unwrap() error { return e.Cause }

// ConfigValidateError wraps the error returned by [Validator].
type ConfigValidateError struct{ Cause error }

func (e ConfigValidateError) Error() string { return "invalid config: " + e.Cause.Error() }
func (e ConfigValidateError) Unwrap() error { return e.Cause }

// AppBuildError wraps the error returned by [AppBuilder].
type AppBuildError struct{ Cause error }

func (e AppBuildError) Error() string { return "failed to build app: " + e.Cause.Error() }
func (e AppBuildError) Unwrap() error { return e.Cause }

// AppRunError wraps the error returned by [App].
type AppRunError struct{ Cause error }

func (e AppRunError) Error() string { return "failed to run app: " + e.Cause.Error() }
func (e AppRunError) Unwrap() error { return e.Cause }
