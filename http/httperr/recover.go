// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package httperr

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/z5labs/keystone/pkg/slogfield"

	"github.com/felixge/httpsnoop"
)

// LogUnhandled logs any panic raised by next at error, with its stack,
// and then panics again with the same value. It never writes a response.
func LogUnhandled(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				log.LogAttrs(
					r.Context(),
					slog.LevelError,
					"unhandled_exception",
					slogfield.StatusCode(http.StatusInternalServerError),
					slog.String("error", fmt.Sprint(v)),
					slogfield.ErrorType(v),
					slogfield.Stack(debug.Stack()),
				)
				panic(v)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

type recoverOptions struct {
	repanic bool
}

// RecoverOption configures [Recoverer].
type RecoverOption func(*recoverOptions)

// Repanic makes [Recoverer] panic again after the 500 response is
// written. Tests use it to surface the original failure.
func Repanic() RecoverOption {
	return func(ro *recoverOptions) {
		ro.repanic = true
	}
}

// Recoverer is the outermost error boundary. A panic below it becomes a
// plain text 500 response which never contains internal detail. When the
// response had already started the connection is aborted instead.
func Recoverer(opts ...RecoverOption) func(http.Handler) http.Handler {
	ro := &recoverOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var started bool
			ww := httpsnoop.Wrap(w, httpsnoop.Hooks{
				WriteHeader: func(f httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
					return func(code int) {
						started = true
						f(code)
					}
				},
				Write: func(f httpsnoop.WriteFunc) httpsnoop.WriteFunc {
					return func(b []byte) (int, error) {
						started = true
						return f(b)
					}
				},
				ReadFrom: func(f httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
					return func(src io.Reader) (int64, error) {
						started = true
						return f(src)
					}
				},
			})

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler || started {
					panic(http.ErrAbortHandler)
				}

				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.Header().Set("X-Content-Type-Options", "nosniff")
				w.WriteHeader(http.StatusInternalServerError)
				io.WriteString(w, http.StatusText(http.StatusInternalServerError))

				if ro.repanic {
					panic(v)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
