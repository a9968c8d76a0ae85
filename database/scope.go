// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package database

import (
	"context"
	"errors"
	"net/http"

	"github.com/z5labs/keystone/pkg/slogfield"
)

// ErrNoScope is returned by [SessionFrom] when the context doesn't
// belong to a request wrapped by [Provider.Middleware].
var ErrNoScope = errors.New("database: no session scope in context")

type scopeKey struct{}

type scope struct {
	p       *Provider
	session *Session
	err     error
}

// Middleware gives every request a session scope. A connection is only
// checked out if the handler asks for a session with [SessionFrom]. The
// session is rolled back and closed once the handler returns or panics.
func (p *Provider) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc := &scope{p: p}
		ctx := context.WithValue(r.Context(), scopeKey{}, sc)
		defer func() {
			if sc.session == nil {
				return
			}
			err := sc.session.Close()
			if err != nil {
				p.log.WarnContext(ctx, "failed to close database session", slogfield.Error(err))
			}
		}()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFrom returns the session of the request ctx belongs to, checking
// out a connection on first call. Every call within one request returns
// the same session.
func SessionFrom(ctx context.Context) (*Session, error) {
	sc, ok := ctx.Value(scopeKey{}).(*scope)
	if !ok {
		return nil, ErrNoScope
	}
	if sc.session == nil && sc.err == nil {
		sc.session, sc.err = sc.p.Session(ctx)
	}
	return sc.session, sc.err
}
