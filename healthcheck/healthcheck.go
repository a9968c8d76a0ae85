// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package healthcheck probes a running service from the outside, the way
// a container orchestrator would.
package healthcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	khttp "github.com/z5labs/keystone/http"
	"github.com/z5labs/keystone/settings"

	"go.uber.org/zap"
)

// ErrUnhealthy is returned when the service responds with anything but 200.
var ErrUnhealthy = errors.New("healthcheck: service is unhealthy")

// RequestError
type RequestError struct {
	Cause error
}

// Error implements the [error] interface.
func (e RequestError) Error() string {
	return fmt.Sprintf("healthcheck: request failed: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e RequestError) Unwrap() error {
	return e.Cause
}

type options struct {
	log       *zap.Logger
	transport http.RoundTripper
}

// Option configures [Run].
type Option func(*options)

// Logger sets where the outcome is logged.
func Logger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithTransport replaces the transport of the probe client.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// URL returns where the probe is sent. The endpoint is resolved against
// ROOT_PATH so an absolute endpoint replaces the root path entirely.
func URL(s *settings.Settings) (*url.URL, error) {
	root, err := url.Parse(s.RootPath)
	if err != nil {
		return nil, err
	}
	endpoint, err := url.Parse(s.HealthcheckEndpoint)
	if err != nil {
		return nil, err
	}

	u := root.ResolveReference(endpoint)
	u.Scheme = "http"
	u.Host = net.JoinHostPort(s.HealthcheckHost, strconv.Itoa(s.Port))
	return u, nil
}

// Run sends a GET to the healthcheck endpoint. Connection failures and 5xx
// responses are retried up to HEALTHCHECK_RETRIES times and each attempt
// is bounded by HEALTHCHECK_TIMEOUT.
func Run(ctx context.Context, s *settings.Settings, opts ...Option) error {
	o := &options{
		log:       zap.NewNop(),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}

	u, err := URL(s)
	if err != nil {
		return err
	}

	log := o.log.With(
		zap.String("host", s.HealthcheckHost),
		zap.Int("port", s.Port),
		zap.String("endpoint", u.Path),
	)

	client := khttp.NewClient(
		khttp.Timeout(s.HealthcheckTimeout),
		khttp.Transport(o.transport),
		khttp.Retry(s.HealthcheckRetries, khttp.LogAttempts(log)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		log.Error("healthcheck_failed", zap.Error(err))
		return RequestError{Cause: err}
	}
	defer resp.Body.Close()

	log = log.With(
		zap.Int("status_code", resp.StatusCode),
		zap.Any("body", readBody(resp.Body)),
	)
	if resp.StatusCode != http.StatusOK {
		log.Error("healthcheck_failed")
		return ErrUnhealthy
	}
	log.Info("healthcheck_passed")
	return nil
}

func readBody(r io.Reader) any {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(b)
	}
	return v
}

// ExitCode maps the result of [Run] to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
