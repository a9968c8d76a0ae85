// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/z5labs/keystone/app"
	"github.com/z5labs/keystone/database"
	"github.com/z5labs/keystone/database/dbtest"
	khttp "github.com/z5labs/keystone/http"
	"github.com/z5labs/keystone/settings"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
)

func testSettings() *settings.Settings {
	return &settings.Settings{
		AppTitle:        "Keystone",
		AppDescription:  "HTTP service starter",
		AppVersion:      "0.1.0",
		Host:            "127.0.0.1",
		Port:            8000,
		Environment:     "test",
		LogLevel:        slog.LevelDebug,
		APIPrefix:       "/api/v1",
		RootPath:        "/",
		OpenAPIURL:      "/openapi.json",
		DocsURL:         "/docs",
		RedocURL:        "/redoc",
		ShutdownTimeout: time.Second,
	}
}

func newService(t *testing.T, s *settings.Settings, opts ...Option) (*Service, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	opts = append([]Option{
		LogOutput(&buf),
		WithDatabase(dbtest.New(t)),
	}, opts...)

	svc, err := New(context.Background(), s, opts...)
	require.NoError(t, err)
	return svc, &buf
}

func serve(h http.Handler, req *http.Request) *http.Response {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w.Result()
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var records []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		records = append(records, rec)
	}
	return records
}

func findRecord(records []map[string]any, msg string) (map[string]any, bool) {
	for _, rec := range records {
		if rec["msg"] == msg {
			return rec, true
		}
	}
	return nil, false
}

func TestService_Health(t *testing.T) {
	t.Run("will report live", func(t *testing.T) {
		t.Run("if the process can serve requests", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, map[string]any{"healthy": true}, decodeBody(t, resp)) {
				return
			}
		})
	})

	t.Run("will report ready", func(t *testing.T) {
		t.Run("if the database answers", func(t *testing.T) {
			svc, buf := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/health/readiness", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			body := decodeBody(t, resp)
			if !assert.Equal(t, true, body["ready"]) {
				return
			}
			if !assert.Equal(t, map[string]any{"database_connection": true}, body["checks"]) {
				return
			}

			_, ok := findRecord(logRecords(t, buf), "readiness")
			if !assert.True(t, ok) {
				return
			}
		})
	})

	t.Run("will report not ready", func(t *testing.T) {
		t.Run("if the database query fails", func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			mock.ExpectQuery(regexp.QuoteMeta("SELECT 1")).
				WillReturnError(errors.New("connection refused"))

			p := database.NewProvider(
				database.Config{PoolSize: 1, PoolTimeout: time.Second},
				database.WithDialector(postgres.New(postgres.Config{Conn: db})),
			)

			svc, _ := newService(t, testSettings(), WithDatabase(p))

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/health/readiness", nil))
			if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
				return
			}

			body := decodeBody(t, resp)
			if !assert.Equal(t, false, body["ready"]) {
				return
			}
			if !assert.Equal(t, map[string]any{"database_connection": false}, body["checks"]) {
				return
			}
		})
	})
}

func TestService_Errors(t *testing.T) {
	t.Run("will respond with a json detail", func(t *testing.T) {
		t.Run("if no route matches", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/nope", nil))
			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, map[string]any{"detail": "Not Found"}, decodeBody(t, resp)) {
				return
			}
		})

		t.Run("if the method is not allowed", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodPost, "/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, map[string]any{"detail": "Method Not Allowed"}, decodeBody(t, resp)) {
				return
			}
		})
	})

	t.Run("will respond with a generic 500", func(t *testing.T) {
		t.Run("if a handler panics", func(t *testing.T) {
			svc, buf := newService(t, testSettings(), Mount(func(ctx context.Context, r chi.Router, deps Deps) error {
				r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
					panic(errors.New("secret internal detail"))
				})
				return nil
			}))

			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			req.Header.Set("X-Request-ID", "req-500")

			resp := serve(svc, req)
			if !assert.Equal(t, http.StatusInternalServerError, resp.StatusCode) {
				return
			}

			var body bytes.Buffer
			body.ReadFrom(resp.Body)
			if !assert.Equal(t, "Internal Server Error", body.String()) {
				return
			}

			rec, ok := findRecord(logRecords(t, buf), "unhandled_exception")
			if !assert.True(t, ok) {
				return
			}
			if !assert.Equal(t, "req-500", rec["request_id"]) {
				return
			}
			if !assert.Equal(t, "/boom", rec["path"]) {
				return
			}
		})
	})
}

func TestService_Correlation(t *testing.T) {
	t.Run("will echo the request id", func(t *testing.T) {
		t.Run("if the client sends one", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			req := httptest.NewRequest(http.MethodGet, "/api/v1/health/liveness", nil)
			req.Header.Set("X-Request-ID", "abc-123")

			resp := serve(svc, req)
			if !assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID")) {
				return
			}
		})
	})

	t.Run("will generate a request id", func(t *testing.T) {
		t.Run("if the client does not send one", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/api/v1/health/liveness", nil))
			if !assert.NotEmpty(t, resp.Header.Get("X-Request-ID")) {
				return
			}
		})
	})

	t.Run("will not leak log fields between requests", func(t *testing.T) {
		t.Run("if two requests are served one after another", func(t *testing.T) {
			svc, buf := newService(t, testSettings())

			for _, id := range []string{"first", "second"} {
				req := httptest.NewRequest(http.MethodGet, "/missing/"+id, nil)
				req.Header.Set("X-Request-ID", id)
				serve(svc, req)
			}

			var seen []string
			for _, rec := range logRecords(t, buf) {
				if rec["msg"] != "http_error" {
					continue
				}
				if !assert.Equal(t, "/missing/"+rec["request_id"].(string), rec["path"]) {
					return
				}
				seen = append(seen, rec["request_id"].(string))
			}
			if !assert.Equal(t, []string{"first", "second"}, seen) {
				return
			}
		})
	})
}

func TestService_CORS(t *testing.T) {
	preflight := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/health/liveness", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		return req
	}

	t.Run("will allow the origin", func(t *testing.T) {
		t.Run("if it is configured", func(t *testing.T) {
			s := testSettings()
			s.CORSAllowOrigins = []string{"https://app.example.com/"}
			svc, _ := newService(t, s)

			resp := serve(svc, preflight("https://app.example.com"))
			if !assert.Equal(t, "https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin")) {
				return
			}
			if !assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials")) {
				return
			}
		})
	})

	t.Run("will not allow the origin", func(t *testing.T) {
		t.Run("if it is not configured", func(t *testing.T) {
			s := testSettings()
			s.CORSAllowOrigins = []string{"https://app.example.com"}
			svc, _ := newService(t, s)

			resp := serve(svc, preflight("https://evil.example.org"))
			if !assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin")) {
				return
			}
		})
	})
}

func TestService_TrustedHosts(t *testing.T) {
	t.Run("will serve the request", func(t *testing.T) {
		t.Run("if the host matches a wildcard entry", func(t *testing.T) {
			s := testSettings()
			s.AllowedHosts = []string{"*.example.com"}
			svc, _ := newService(t, s)

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "http://api.example.com:8000/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})

		t.Run("if every host is allowed", func(t *testing.T) {
			s := testSettings()
			s.AllowedHosts = []string{"*"}
			svc, _ := newService(t, s)

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "http://anything.test/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will reject the request", func(t *testing.T) {
		t.Run("if the host is not allowed", func(t *testing.T) {
			s := testSettings()
			s.AllowedHosts = []string{"api.example.com"}
			svc, _ := newService(t, s)

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "http://evil.test/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusBadRequest, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will redirect to https", func(t *testing.T) {
		t.Run("if forced and the request is plain http", func(t *testing.T) {
			s := testSettings()
			s.HTTPSForceRedirect = true
			svc, _ := newService(t, s)

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "http://api.example.com/api/v1/health/liveness", nil))
			if !assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, "https://api.example.com/api/v1/health/liveness", resp.Header.Get("Location")) {
				return
			}
		})
	})
}

func TestService_Docs(t *testing.T) {
	t.Run("will serve the openapi document", func(t *testing.T) {
		t.Run("as json and yaml", func(t *testing.T) {
			svc, _ := newService(t, testSettings())

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			body := decodeBody(t, resp)
			paths, ok := body["paths"].(map[string]any)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Contains(t, paths, "/api/v1/health/readiness") {
				return
			}

			resp = serve(svc, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
		})
	})

	t.Run("will point the docs pages at the root path", func(t *testing.T) {
		t.Run("if the app is served behind a proxy prefix", func(t *testing.T) {
			s := testSettings()
			s.RootPath = "/proxy/"
			svc, _ := newService(t, s)

			resp := serve(svc, httptest.NewRequest(http.MethodGet, "/redoc", nil))
			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}

			var body strings.Builder
			bufio.NewReader(resp.Body).WriteTo(&body)
			if !assert.Contains(t, body.String(), `spec-url="/proxy/openapi.json"`) {
				return
			}
		})
	})

	t.Run("will not serve any docs", func(t *testing.T) {
		t.Run("if the openapi url is empty", func(t *testing.T) {
			s := testSettings()
			s.OpenAPIURL = ""
			svc, _ := newService(t, s)

			for _, path := range []string{"/openapi.json", "/docs", "/redoc"} {
				resp := serve(svc, httptest.NewRequest(http.MethodGet, path, nil))
				if !assert.Equal(t, http.StatusNotFound, resp.StatusCode, path) {
					return
				}
			}
		})
	})
}

func TestBuilder(t *testing.T) {
	t.Run("will register closing the service", func(t *testing.T) {
		t.Run("if a lifecycle is present", func(t *testing.T) {
			lc := &app.Lifecycle{}
			ctx := app.NewContext(context.Background(), lc)

			var buf bytes.Buffer
			builder := Builder(LogOutput(&buf), WithDatabase(dbtest.New(t)))

			a, err := builder.Build(ctx, *testSettings())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.IsType(t, &khttp.Runtime{}, a) {
				return
			}
			if !assert.Nil(t, lc.PostRun().Run(ctx)) {
				return
			}
		})
	})
}
