// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerefOr(t *testing.T) {
	t.Run("will return the default", func(t *testing.T) {
		t.Run("if the pointer is nil", func(t *testing.T) {
			if !assert.Equal(t, 100, DerefOr(nil, 100)) {
				return
			}
		})
	})

	t.Run("will return the pointed to value", func(t *testing.T) {
		t.Run("if the pointer is not nil", func(t *testing.T) {
			if !assert.Equal(t, 0, DerefOr(Ref(0), 100)) {
				return
			}
		})
	})
}
