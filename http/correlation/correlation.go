// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package correlation assigns every request an id used to join its logs
// and traces across services.
package correlation

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// DefaultHeader is the header an inbound id is read from and
// the resolved id is written to.
const DefaultHeader = "X-Request-ID"

type idKey struct{}

// FromContext returns the correlation id of the request ctx belongs to.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok
}

// WithID returns a copy of ctx carrying id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// NewID returns a random UUID formatted as 32 hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

type options struct {
	header   string
	generate func() string
}

// Option configures the [Middleware].
type Option func(*options)

// Header overrides [DefaultHeader].
func Header(name string) Option {
	return func(o *options) {
		o.header = http.CanonicalHeaderKey(name)
	}
}

// Generator overrides [NewID].
func Generator(f func() string) Option {
	return func(o *options) {
		o.generate = f
	}
}

// Middleware adopts a non-empty inbound id or generates a new one, makes
// it available through [FromContext] and sets it on the response.
func Middleware(opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		header:   DefaultHeader,
		generate: NewID,
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(o.header))
			if id == "" {
				id = o.generate()
			}

			w.Header().Set(o.header, id)
			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}
