// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package health evaluates named dependency checks.
package health

import "context"

// Metric represents anything that can report its health status.
type Metric interface {
	Healthy(context.Context) bool
}

// MetricFunc is a func which implements the [Metric] interface.
type MetricFunc func(context.Context) bool

// Healthy implements the [Metric] interface.
func (f MetricFunc) Healthy(ctx context.Context) bool {
	return f(ctx)
}

// Check names a [Metric].
type Check struct {
	Name   string
	Metric Metric
}

// Report is the outcome of evaluating a set of checks.
type Report struct {
	Ready  bool            `json:"ready"`
	Checks map[string]bool `json:"checks"`
}

// Evaluate runs every check, in order, and reports ready only
// when all of them are healthy. Nothing is cached between calls.
func Evaluate(ctx context.Context, checks ...Check) Report {
	r := Report{
		Ready:  true,
		Checks: make(map[string]bool, len(checks)),
	}
	for _, c := range checks {
		ok := c.Metric.Healthy(ctx)
		r.Checks[c.Name] = ok
		r.Ready = r.Ready && ok
	}
	return r
}
