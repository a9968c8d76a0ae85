// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestFileReader(t *testing.T) {
	fsys := fstest.MapFS{
		"app.yaml": &fstest.MapFile{Data: []byte("PORT: 9000\n")},
	}

	t.Run("will read the whole file", func(t *testing.T) {
		t.Run("if it exists", func(t *testing.T) {
			r := NewFileReader(fsys, "app.yaml")
			defer r.Close()

			b, err := io.ReadAll(r)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "PORT: 9000\n", string(b)) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the file does not exist", func(t *testing.T) {
			r := NewFileReader(fsys, "missing.yaml")

			_, err := io.ReadAll(r)
			if !assert.ErrorIs(t, err, fs.ErrNotExist) {
				return
			}
		})

		t.Run("if it is read after being closed", func(t *testing.T) {
			r := NewFileReader(fsys, "app.yaml")
			if !assert.Nil(t, r.Close()) {
				return
			}

			_, err := io.ReadAll(r)
			if !assert.ErrorIs(t, err, fs.ErrClosed) {
				return
			}
		})
	})

	t.Run("will be usable as a yaml source", func(t *testing.T) {
		t.Run("if wrapped by FromYaml", func(t *testing.T) {
			m, err := Read(FromYaml(NewFileReader(fsys, "app.yaml")))
			if !assert.Nil(t, err) {
				return
			}

			var cfg struct {
				Port int `config:"PORT"`
			}
			if !assert.Nil(t, m.Unmarshal(&cfg)) {
				return
			}
			if !assert.Equal(t, 9000, cfg.Port) {
				return
			}
		})
	})
}
