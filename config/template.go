// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"text/template"

	"github.com/z5labs/keystone/internal/try"
)

// TemplateOption configures a [Template].
type TemplateOption func(*Template)

// TemplateFunc registers an additional function for use inside the template.
func TemplateFunc(name string, f any) TemplateOption {
	return func(t *Template) {
		t.funcs[name] = f
	}
}

// Template is an [io.Reader] which renders the underlying reader
// as a text/template the first time it's read.
//
// The following functions are always available:
//
//	{{ env "DATABASE_URI" }}
//	{{ env "PORT" | default "8000" }}
type Template struct {
	r io.Reader

	funcs      template.FuncMap
	renderOnce sync.Once
	renderErr  error
	buf        bytes.Buffer
}

// RenderTemplate returns a [Template] for r.
func RenderTemplate(r io.Reader, opts ...TemplateOption) *Template {
	t := &Template{
		r: r,
		funcs: template.FuncMap{
			"env":     os.Getenv,
			"default": defaultValue,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// TemplateParseError
type TemplateParseError struct {
	Cause error
}

// Error implements the [error] interface.
func (e TemplateParseError) Error() string {
	return fmt.Sprintf("failed to parse config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateParseError) Unwrap() error {
	return e.Cause
}

// TemplateExecError
type TemplateExecError struct {
	Cause error
}

// Error implements the [error] interface.
func (e TemplateExecError) Error() string {
	return fmt.Sprintf("failed to exec config template: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e TemplateExecError) Unwrap() error {
	return e.Cause
}

// Read implements the [io.Reader] interface.
func (t *Template) Read(b []byte) (int, error) {
	t.renderOnce.Do(func() {
		t.renderErr = t.render()
	})
	if t.renderErr != nil {
		return 0, t.renderErr
	}
	return t.buf.Read(b)
}

func (t *Template) render() (err error) {
	defer try.Close(&err, t.r)

	raw, err := io.ReadAll(t.r)
	if err != nil {
		return err
	}

	tmpl, err := template.New("config").Funcs(t.funcs).Parse(string(raw))
	if err != nil {
		return TemplateParseError{Cause: err}
	}

	err = tmpl.Execute(&t.buf, struct{}{})
	if err != nil {
		return TemplateExecError{Cause: err}
	}
	return nil
}

// defaultValue returns def if v is nil or the zero value for its type.
func defaultValue(def, v any) any {
	if v == nil {
		return def
	}
	if reflect.ValueOf(v).IsZero() {
		return def
	}
	return v
}
