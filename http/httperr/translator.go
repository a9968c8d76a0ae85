// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/z5labs/keystone/http/httpjson"
	"github.com/z5labs/keystone/pkg/slogfield"
)

// Translator logs errors and writes their standard response.
type Translator struct {
	log *slog.Logger
}

// NewTranslator returns a [Translator] logging to log.
func NewTranslator(log *slog.Logger) *Translator {
	return &Translator{log: log}
}

type detailBody struct {
	Detail any `json:"detail"`
}

// HTTPError logs e at info when the status is 401, 403 or 404 and
// at error otherwise. The response body is {"detail": e.Detail}.
func (t *Translator) HTTPError(w http.ResponseWriter, r *http.Request, e *Error) {
	lvl := slog.LevelError
	if shouldLogAsInfo(e.Status) {
		lvl = slog.LevelInfo
	}
	t.log.LogAttrs(r.Context(), lvl, "http_error", slogfield.StatusCode(e.Status), slogfield.Detail(e.Detail))

	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	httpjson.Write(w, e.Status, detailBody{Detail: e.Detail})
}

// ValidationError always logs at info and responds with 422.
func (t *Translator) ValidationError(w http.ResponseWriter, r *http.Request, e ValidationError) {
	t.log.LogAttrs(
		r.Context(),
		slog.LevelInfo,
		"request_validation_error",
		slogfield.StatusCode(http.StatusUnprocessableEntity),
		slogfield.Detail(e.Errors),
	)
	httpjson.Write(w, http.StatusUnprocessableEntity, detailBody{Detail: e.Errors})
}

// NotFound responds to requests which matched no route.
func (t *Translator) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.HTTPError(w, r, New(http.StatusNotFound))
	})
}

// MethodNotAllowed responds to requests which matched a route but not its methods.
func (t *Translator) MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.HTTPError(w, r, New(http.StatusMethodNotAllowed))
	})
}

// HandlerFunc is an http handler which may fail.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Handle adapts f into an [http.Handler]. An [*Error] or [ValidationError]
// returned by f is translated. Any other error is unhandled: it's raised
// as a panic so [LogUnhandled] and [Recoverer] deal with it exactly like
// a panic inside f.
func (t *Translator) Handle(f HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}

		var herr *Error
		if errors.As(err, &herr) {
			t.HTTPError(w, r, herr)
			return
		}

		var verr ValidationError
		if errors.As(err, &verr) {
			t.ValidationError(w, r, verr)
			return
		}
		panic(err)
	})
}
