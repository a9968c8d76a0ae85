// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package slogfield names the structured log fields shared across keystone.
package slogfield

import (
	"fmt"
	"log/slog"
	"time"
)

// Error returns an slog.Attr for a error.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// ErrorType returns an slog.Attr holding the dynamic type of v.
func ErrorType(v any) slog.Attr {
	return slog.String("error_type", typeName(v))
}

// StatusCode returns an slog.Attr for an HTTP response status code.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// Detail returns an slog.Attr for the detail of an error response.
func Detail(v any) slog.Attr {
	return slog.Any("detail", v)
}

// Stack returns an slog.Attr for a goroutine stack trace.
func Stack(b []byte) slog.Attr {
	return slog.String("stack", string(b))
}

// Method returns an slog.Attr for an HTTP request method.
func Method(m string) slog.Attr {
	return slog.String("method", m)
}

// Path returns an slog.Attr for a URL path.
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// RemoteAddr returns an slog.Attr for the client address.
func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// RequestID returns an slog.Attr for a request correlation id.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// Scheme returns an slog.Attr for a URL scheme.
func Scheme(s string) slog.Attr {
	return slog.String("scheme", s)
}

// Duration returns an slog.Attr for a time.Duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.Duration(key, d)
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
