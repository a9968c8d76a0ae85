// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"io"

	"github.com/z5labs/keystone/internal/try"

	"gopkg.in/yaml.v3"
)

// Yaml reads a single YAML mapping document.
type Yaml struct {
	r io.Reader
}

// FromYaml returns a [Yaml] source reading from r. The reader is
// closed after Apply when it implements [io.Closer].
func FromYaml(r io.Reader) Yaml {
	return Yaml{r: r}
}

// InvalidYamlError wraps a YAML syntax or type error.
type InvalidYamlError struct {
	Cause error
}

func (e InvalidYamlError) Error() string {
	return fmt.Sprintf("invalid yaml: %s", e.Cause)
}

func (e InvalidYamlError) Unwrap() error {
	return e.Cause
}

func (src Yaml) Apply(store Store) (err error) {
	defer try.Close(&err, src.r)

	b, err := io.ReadAll(src.r)
	if err != nil {
		return err
	}

	var doc Map
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return InvalidYamlError{Cause: err}
	}
	return doc.Apply(store)
}
