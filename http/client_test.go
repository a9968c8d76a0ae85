// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func statusSequence(codes ...int) (*httptest.Server, *atomic.Int32) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i := int(calls.Add(1)) - 1
		w.WriteHeader(codes[min(i, len(codes)-1)])
	}))
	return srv, &calls
}

func TestNewClient(t *testing.T) {
	t.Run("will send the request once", func(t *testing.T) {
		t.Run("if retries are not enabled", func(t *testing.T) {
			srv, calls := statusSequence(http.StatusServiceUnavailable, http.StatusOK)
			defer srv.Close()

			resp, err := NewClient(Timeout(time.Second)).Get(srv.URL)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int32(1), calls.Load()) {
				return
			}
		})
	})

	t.Run("will retry", func(t *testing.T) {
		t.Run("if the server responds with a 503", func(t *testing.T) {
			srv, calls := statusSequence(http.StatusServiceUnavailable, http.StatusOK)
			defer srv.Close()

			core, logs := observer.New(zap.DebugLevel)
			client := NewClient(
				Timeout(time.Second),
				Retry(1,
					Backoff(time.Millisecond, time.Millisecond),
					LogAttempts(zap.New(core)),
				),
			)

			resp, err := client.Get(srv.URL)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusOK, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int32(2), calls.Load()) {
				return
			}

			sent := logs.FilterMessage("sending http request").All()
			if !assert.Len(t, sent, 2) {
				return
			}
			if !assert.Equal(t, int64(1), sent[1].ContextMap()["attempt"]) {
				return
			}
		})
	})

	t.Run("will not retry", func(t *testing.T) {
		t.Run("if the server responds with a 404", func(t *testing.T) {
			srv, calls := statusSequence(http.StatusNotFound, http.StatusOK)
			defer srv.Close()

			resp, err := NewClient(Retry(3, Backoff(time.Millisecond, time.Millisecond))).Get(srv.URL)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusNotFound, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int32(1), calls.Load()) {
				return
			}
		})
	})

	t.Run("will return the last response", func(t *testing.T) {
		t.Run("if every attempt fails", func(t *testing.T) {
			srv, calls := statusSequence(http.StatusServiceUnavailable)
			defer srv.Close()

			resp, err := NewClient(Retry(2, Backoff(time.Millisecond, time.Millisecond))).Get(srv.URL)
			if !assert.Nil(t, err) {
				return
			}
			defer resp.Body.Close()

			if !assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode) {
				return
			}
			if !assert.Equal(t, int32(3), calls.Load()) {
				return
			}
		})
	})
}
