// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httphealth serves liveness and readiness probes.
package httphealth

import (
	"log/slog"
	"net/http"

	"github.com/z5labs/keystone/http/httpjson"
	"github.com/z5labs/keystone/pkg/health"
)

// Liveness is healthy whenever the process can run a handler at all.
type Liveness struct{}

// LivenessBody is the response body of [Liveness].
type LivenessBody struct {
	Healthy bool `json:"healthy"`
}

// ServeHTTP implements the [http.Handler] interface.
func (Liveness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, LivenessBody{Healthy: true})
}

// Readiness evaluates its checks on every request. It responds 200 when
// all of them pass and 503 otherwise.
type Readiness struct {
	log    *slog.Logger
	checks []health.Check
}

// NewReadiness returns a [Readiness] for the given checks.
func NewReadiness(log *slog.Logger, checks ...health.Check) *Readiness {
	return &Readiness{
		log:    log,
		checks: checks,
	}
}

// ServeHTTP implements the [http.Handler] interface.
func (h *Readiness) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	report := health.Evaluate(r.Context(), h.checks...)

	checks := make([]any, 0, len(report.Checks))
	for _, c := range h.checks {
		checks = append(checks, slog.Bool(c.Name, report.Checks[c.Name]))
	}
	h.log.InfoContext(
		r.Context(),
		"readiness",
		slog.Bool("ready", report.Ready),
		slog.Group("checks", checks...),
	)

	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	httpjson.Write(w, status, report)
}
