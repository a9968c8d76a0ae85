// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Store receives the key value pairs a [Source] provides.
type Store interface {
	Set(key string, value any)
}

// Source writes its keys into a [Store].
type Source interface {
	Apply(Store) error
}

// SourceFunc adapts a func to [Source].
type SourceFunc func(Store) error

func (f SourceFunc) Apply(store Store) error {
	return f(store)
}

// Map is an in-memory [Source].
type Map map[string]any

func (m Map) Apply(store Store) error {
	for k, v := range m {
		store.Set(k, v)
	}
	return nil
}

// Manager holds the merged result of all sources.
type Manager struct {
	v *viper.Viper
}

// Read applies srcs in order to one case-insensitive store, so a
// later source overrides an earlier one.
func Read(srcs ...Source) (*Manager, error) {
	v := viper.New()
	for _, src := range srcs {
		if err := src.Apply(v); err != nil {
			return nil, err
		}
	}
	return &Manager{v: v}, nil
}

// IsSet reports whether any source provided a value for the key.
func (m *Manager) IsSet(key string) bool {
	return m.v.IsSet(key)
}

// Unmarshal decodes the merged values into v, matching struct fields
// by their `config` tag.
func (m *Manager) Unmarshal(v any) error {
	return m.v.Unmarshal(v, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "config"
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.DecodeHookFuncValue(coerce)
	})
}

// TypeCoercionError is returned when a config value can not be
// converted into the type of the field it is decoded into.
type TypeCoercionError struct {
	From  reflect.Type
	To    reflect.Type
	Cause error
}

func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.From, e.To, e.Cause)
}

func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	stringSliceType     = reflect.TypeOf([]string(nil))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func coerce(from, to reflect.Value) (any, error) {
	v, err := convert(from, to.Type())
	if err != nil {
		return nil, TypeCoercionError{From: from.Type(), To: to.Type(), Cause: err}
	}
	return v, nil
}

// convert handles the conversions mapstructure's weak typing misses.
// Anything else is passed through untouched.
func convert(from reflect.Value, to reflect.Type) (any, error) {
	isString := from.Kind() == reflect.String
	switch {
	case to == durationType && isString:
		return time.ParseDuration(from.String())
	case to == durationType && from.CanInt():
		return time.Duration(from.Int()), nil
	case to == stringSliceType && isString:
		return splitList(from.String())
	case isString && reflect.PointerTo(to).Implements(textUnmarshalerType):
		p := reflect.New(to)
		err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(from.String()))
		if err != nil {
			return nil, err
		}
		return p.Elem().Interface(), nil
	}
	return from.Interface(), nil
}

// splitList accepts either a JSON array, e.g. ["a","b"], or a comma
// separated list, e.g. a,b.
func splitList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ss []string
		err := json.Unmarshal([]byte(s), &ss)
		return ss, err
	}

	ss := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ss = append(ss, p)
		}
	}
	return ss, nil
}
