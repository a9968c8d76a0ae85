// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"errors"
	"io/fs"
	"strings"
)

// Dir is a [Source] for a secrets directory where every regular
// file holds the value of the variable it's named after.
type Dir struct {
	fs      fs.FS
	aliases Aliases
}

// FromDir returns a [Source] reading one value per file in the root of fsys.
// A missing directory contributes no values.
func FromDir(fsys fs.FS, aliases ...Aliases) Dir {
	merged := make(Aliases)
	for _, as := range aliases {
		for k, v := range as {
			merged[k] = v
		}
	}
	return Dir{
		fs:      fsys,
		aliases: merged,
	}
}

// Apply implements the [Source] interface.
func (src Dir) Apply(store Store) error {
	entries, err := fs.ReadDir(src.fs, ".")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	m := make(Map, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		b, err := fs.ReadFile(src.fs, entry.Name())
		if err != nil {
			return err
		}
		m[entry.Name()] = strings.TrimSpace(string(b))
	}
	src.aliases.resolve(m)
	return m.Apply(store)
}
