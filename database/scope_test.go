// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package database_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/z5labs/keystone/database"
	"github.com/z5labs/keystone/database/dbtest"

	"github.com/stretchr/testify/assert"
)

func TestSessionFrom(t *testing.T) {
	t.Run("will return ErrNoScope", func(t *testing.T) {
		t.Run("if the context is not from a scoped request", func(t *testing.T) {
			_, err := database.SessionFrom(context.Background())
			if !assert.ErrorIs(t, err, database.ErrNoScope) {
				return
			}
		})
	})

	t.Run("will return the same session", func(t *testing.T) {
		t.Run("if called more than once during a request", func(t *testing.T) {
			p := dbtest.New(t, &widget{})

			var a, b *database.Session
			h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var err error
				a, err = database.SessionFrom(r.Context())
				if !assert.Nil(t, err) {
					return
				}
				b, err = database.SessionFrom(r.Context())
				if !assert.Nil(t, err) {
					return
				}
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			if !assert.NotNil(t, a) {
				return
			}
			if !assert.Same(t, a, b) {
				return
			}
		})
	})

	t.Run("will close the session", func(t *testing.T) {
		t.Run("if the handler returns without committing", func(t *testing.T) {
			p := dbtest.New(t, &widget{})

			var s *database.Session
			h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var err error
				s, err = database.SessionFrom(r.Context())
				if !assert.Nil(t, err) {
					return
				}
				s.Add(&widget{Name: "a"})
				err = s.Flush(r.Context())
				if !assert.Nil(t, err) {
					return
				}
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			_, err := s.DB(context.Background())
			if !assert.ErrorIs(t, err, database.ErrSessionClosed) {
				return
			}
			if !assert.Equal(t, int64(0), countWidgets(t, p)) {
				return
			}
		})

		t.Run("if the handler panics", func(t *testing.T) {
			p := dbtest.New(t, &widget{})

			var s *database.Session
			h := p.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s, _ = database.SessionFrom(r.Context())
				panic("boom")
			}))

			func() {
				defer func() {
					recover()
				}()
				h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			}()

			if !assert.NotNil(t, s) {
				return
			}
			_, err := s.DB(context.Background())
			if !assert.ErrorIs(t, err, database.ErrSessionClosed) {
				return
			}
		})
	})
}
