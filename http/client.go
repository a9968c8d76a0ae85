// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type clientConfig struct {
	timeout   time.Duration
	transport http.RoundTripper
	retry     *retryConfig
}

// ClientOption configures [NewClient].
type ClientOption func(*clientConfig)

// Timeout bounds each attempt, not the whole retry sequence.
func Timeout(d time.Duration) ClientOption {
	return func(cc *clientConfig) {
		cc.timeout = d
	}
}

// Transport replaces [http.DefaultTransport].
func Transport(rt http.RoundTripper) ClientOption {
	return func(cc *clientConfig) {
		cc.transport = rt
	}
}

type retryConfig struct {
	max        int
	backoffMin time.Duration
	backoffMax time.Duration
	log        *zap.Logger
}

// RetryOption configures [Retry].
type RetryOption func(*retryConfig)

// Backoff sets the bounds of the exponential wait between attempts.
func Backoff(min, max time.Duration) RetryOption {
	return func(rc *retryConfig) {
		rc.backoffMin = min
		rc.backoffMax = max
	}
}

// LogAttempts logs every attempt and response at debug.
func LogAttempts(log *zap.Logger) RetryOption {
	return func(rc *retryConfig) {
		rc.log = log
	}
}

// Retry sends a request up to n more times after a connection error or
// a retryable status code (429 and most 5xx). Once attempts run out the
// last response is returned as is.
func Retry(n int, opts ...RetryOption) ClientOption {
	return func(cc *clientConfig) {
		rc := &retryConfig{
			max:        max(n, 0),
			backoffMin: 100 * time.Millisecond,
			backoffMax: 5 * time.Second,
			log:        zap.NewNop(),
		}
		for _, opt := range opts {
			opt(rc)
		}
		cc.retry = rc
	}
}

// NewClient returns an [http.Client]. Without [Retry] every request is
// sent exactly once.
func NewClient(opts ...ClientOption) *http.Client {
	cc := &clientConfig{
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cc)
	}

	hc := &http.Client{
		Timeout:   cc.timeout,
		Transport: cc.transport,
	}
	if cc.retry == nil {
		return hc
	}

	log := cc.retry.log
	c := retryablehttp.NewClient()
	c.HTTPClient = hc
	c.Logger = nil
	c.RetryMax = cc.retry.max
	c.RetryWaitMin = cc.retry.backoffMin
	c.RetryWaitMax = cc.retry.backoffMax
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		log.Debug(
			"sending http request",
			zap.String("method", req.Method),
			zap.Stringer("url", req.URL),
			zap.Int("attempt", attempt),
		)
	}
	c.ResponseLogHook = func(_ retryablehttp.Logger, resp *http.Response) {
		log.Debug(
			"received http response",
			zap.Stringer("url", resp.Request.URL),
			zap.Int("status_code", resp.StatusCode),
		)
	}
	return c.StandardClient()
}
