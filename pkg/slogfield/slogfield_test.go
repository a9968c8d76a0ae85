// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package slogfield

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorType(t *testing.T) {
	t.Run("will name the dynamic type", func(t *testing.T) {
		t.Run("if given an error value", func(t *testing.T) {
			attr := ErrorType(errors.New("boom"))
			if !assert.Equal(t, "error_type", attr.Key) {
				return
			}
			if !assert.Equal(t, "*errors.errorString", attr.Value.String()) {
				return
			}
		})

		t.Run("if given nil", func(t *testing.T) {
			attr := ErrorType(nil)
			if !assert.Equal(t, "<nil>", attr.Value.String()) {
				return
			}
		})
	})
}
