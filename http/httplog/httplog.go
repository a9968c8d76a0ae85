// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httplog binds request fields into the logging context.
package httplog

import (
	"net"
	"net/http"

	"github.com/z5labs/keystone/http/correlation"
	"github.com/z5labs/keystone/pkg/logctx"
	"github.com/z5labs/keystone/pkg/slogfield"
)

// Bind must run after [correlation.Middleware]. It replaces whatever log
// fields the request context carried with the fields of this request.
func Bind(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := correlation.FromContext(r.Context())

		ctx := logctx.New(
			r.Context(),
			slogfield.Method(r.Method),
			slogfield.Path(r.URL.Path),
			slogfield.RemoteAddr(remoteAddr(r)),
			slogfield.RequestID(requestID),
			slogfield.Scheme(scheme(r)),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}
	return host
}

func scheme(r *http.Request) string {
	if r.URL.Scheme != "" {
		return r.URL.Scheme
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
