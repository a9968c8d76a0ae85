// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"
)

func allowOrigins(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		allowed = append(allowed, strings.TrimSuffix(o, "/"))
	}

	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}

// secureHosts rejects requests for hosts outside of hosts and, if
// forceHTTPS is set, redirects plain http requests to https. A "*" entry
// allows every host and "*.example.com" allows any subdomain. The port
// of the Host header is ignored.
func secureHosts(hosts []string, forceHTTPS bool) func(http.Handler) http.Handler {
	s := secure.New(secure.Options{
		AllowedHosts:         hostPatterns(hosts),
		AllowedHostsAreRegex: true,
		SSLRedirect:          forceHTTPS,
		SSLTemporaryRedirect: true,
		SSLProxyHeaders: map[string]string{
			"X-Forwarded-Proto": "https",
		},
	})
	s.SetBadHostHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid host header", http.StatusBadRequest)
	}))
	return s.Handler
}

func hostPatterns(hosts []string) []string {
	patterns := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h == "*" {
			return nil
		}

		p := regexp.QuoteMeta(h)
		if rest, ok := strings.CutPrefix(p, `\*\.`); ok {
			p = `.+\.` + rest
		}
		patterns = append(patterns, "^"+p+`(:[0-9]+)?$`)
	}
	return patterns
}
