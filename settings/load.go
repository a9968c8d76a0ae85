// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/z5labs/keystone/config"

	"github.com/go-playground/validator/v10"
)

// SecretsDir is where container orchestrators mount secrets.
const SecretsDir = "/run/secrets"

// Sources returns the standard source chain: defaults, then each extra
// source in order, then the secrets directory and finally the environment.
func Sources(secrets fs.FS, extra ...config.Source) []config.Source {
	srcs := make([]config.Source, 0, len(extra)+3)
	srcs = append(srcs, Defaults())
	srcs = append(srcs, extra...)
	srcs = append(srcs,
		config.FromDir(secrets, Aliases()),
		config.FromEnv(Aliases()),
	)
	return srcs
}

// ReadError
type ReadError struct {
	Cause error
}

// Error implements the [error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("failed to read settings: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// ValidationError lists every setting which failed validation.
type ValidationError struct {
	Fields []string
	Cause  error
}

// Error implements the [error] interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid settings %s: %s", strings.Join(e.Fields, ", "), e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ValidationError) Unwrap() error {
	return e.Cause
}

// Load reads the settings from the given sources and validates them.
func Load(srcs ...config.Source) (*Settings, error) {
	m, err := config.Read(srcs...)
	if err != nil {
		return nil, ReadError{Cause: err}
	}

	var s Settings
	err = m.Unmarshal(&s)
	if err != nil {
		return nil, ReadError{Cause: err}
	}

	err = s.Validate()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func settingsValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return f.Tag.Get("config")
		})
		validate.RegisterValidation("dburl", func(fl validator.FieldLevel) bool {
			return isDatabaseURL(fl.Field().String())
		})
	})
	return validate
}

// Validate checks required settings are present and well formed.
func (s *Settings) Validate() error {
	err := settingsValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationError{Cause: err}
	}

	fields := make([]string, 0, len(verrs))
	for _, ferr := range verrs {
		fields = append(fields, ferr.Field())
	}
	return ValidationError{Fields: fields, Cause: err}
}

func isDatabaseURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	scheme, _, _ := strings.Cut(u.Scheme, "+")
	switch scheme {
	case "postgres", "postgresql":
		return u.Host != ""
	case "sqlite":
		return true
	default:
		return false
	}
}

// Provider memoizes the first [Load] for the lifetime of the process.
type Provider struct {
	srcs []config.Source

	once     sync.Once
	settings *Settings
	err      error
}

// NewProvider returns a [Provider] which loads from srcs on first use.
func NewProvider(srcs ...config.Source) *Provider {
	return &Provider{srcs: srcs}
}

// Get returns the same settings, or the same error, on every call.
func (p *Provider) Get() (*Settings, error) {
	p.once.Do(func() {
		p.settings, p.err = Load(p.srcs...)
	})
	return p.settings, p.err
}
