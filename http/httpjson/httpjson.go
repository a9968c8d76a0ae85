// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpjson writes JSON response bodies.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// ContentType is the media type set on every response written by [Write].
const ContentType = "application/json"

// Write encodes v as the response body with the given status code.
func Write(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	_, err = w.Write(b)
	return err
}
