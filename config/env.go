// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"os"
	"strings"
)

// Aliases maps an alternate key name to its canonical key name.
type Aliases map[string]string

// Alias returns an [Aliases] containing a single alias.
func Alias(alias, canonical string) Aliases {
	return Aliases{alias: canonical}
}

// resolve copies aliased values onto their canonical key. A value
// already present under the canonical key always wins.
func (as Aliases) resolve(m Map) {
	for alias, canonical := range as {
		v, ok := lookupFold(m, alias)
		if !ok {
			continue
		}
		if _, exists := lookupFold(m, canonical); exists {
			continue
		}
		m[canonical] = v
	}
}

func lookupFold(m Map, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// Env is a [Source] for the process environment.
type Env struct {
	environ func() []string
	aliases Aliases
}

// FromEnv returns a [Source] for the process environment. Each [Aliases]
// given is applied after the environment is read.
func FromEnv(aliases ...Aliases) Env {
	merged := make(Aliases)
	for _, as := range aliases {
		for k, v := range as {
			merged[k] = v
		}
	}
	return Env{
		environ: os.Environ,
		aliases: merged,
	}
}

// Apply implements the [Source] interface.
func (src Env) Apply(store Store) error {
	m := make(Map)
	env := src.environ()
	for _, pair := range env {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	src.aliases.resolve(m)
	return m.Apply(store)
}
