// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
)

// Hook is an action performed at a specific point relative to
// the execution of a [keystone.App].
type Hook interface {
	Run(context.Context) error
}

// HookFunc is a func variant of [Hook].
type HookFunc func(context.Context) error

// Run implements the [Hook] interface.
func (f HookFunc) Run(ctx context.Context) error {
	return f(ctx)
}

type multiHook []Hook

func (mh multiHook) Run(ctx context.Context) error {
	var err error
	for _, h := range mh {
		err = joinErrs(err, h.Run(ctx))
	}
	return err
}

// MultiHook runs every given [Hook] in order. A failing hook does not
// prevent the rest from running.
func MultiHook(hooks ...Hook) Hook {
	return multiHook(hooks)
}

// Lifecycle collects [Hook]s registered while a [keystone.App] is being built.
type Lifecycle struct {
	postRuns multiHook
}

// OnPostRun registers a [Hook] to run after the [keystone.App] returns.
// Hooks run in the reverse order they were registered in.
func (lc *Lifecycle) OnPostRun(hook Hook) {
	lc.postRuns = append(lc.postRuns, hook)
}

// PostRun returns every registered post run [Hook] as a single [Hook].
func (lc *Lifecycle) PostRun() Hook {
	hooks := make(multiHook, len(lc.postRuns))
	for i, h := range lc.postRuns {
		hooks[len(hooks)-1-i] = h
	}
	return hooks
}

type lifecycleKey struct{}

// NewContext returns a copy of parent carrying lc.
func NewContext(parent context.Context, lc *Lifecycle) context.Context {
	return context.WithValue(parent, lifecycleKey{}, lc)
}

// FromContext returns the [Lifecycle] stored in ctx, if any.
func FromContext(ctx context.Context) (*Lifecycle, bool) {
	lc, ok := ctx.Value(lifecycleKey{}).(*Lifecycle)
	return lc, ok
}

func joinErrs(err, other error) error {
	switch {
	case other == nil:
		return err
	case err == nil:
		return other
	default:
		return errors.Join(err, other)
	}
}
