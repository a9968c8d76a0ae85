// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httperr translates errors raised while handling a request into
// HTTP responses and logs each of them at a severity derived from the error.
package httperr

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is an error which maps directly onto an HTTP response.
type Error struct {
	Status int
	Detail string
	Header http.Header
}

// New returns an [Error]. The detail defaults to the status text.
func New(status int, detail ...string) *Error {
	d := strings.Join(detail, " ")
	if d == "" {
		d = http.StatusText(status)
	}
	return &Error{
		Status: status,
		Detail: d,
	}
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("http error %d: %s", e.Status, e.Detail)
}

// FieldError describes why one input field is invalid.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError reports every invalid field of a request.
type ValidationError struct {
	Errors []FieldError
}

// Error implements the [error] interface.
func (e ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", strings.Join(fe.Loc, "."), fe.Msg)
	}
	return "request validation failed: " + strings.Join(parts, "; ")
}

// Missing returns the [FieldError] for a required field which wasn't provided.
func Missing(loc ...string) FieldError {
	return FieldError{
		Loc:  loc,
		Msg:  "field required",
		Type: "value_error.missing",
	}
}

// shouldLogAsInfo holds the client errors which are expected in normal
// operation and aren't worth anyone's attention.
func shouldLogAsInfo(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	default:
		return false
	}
}
