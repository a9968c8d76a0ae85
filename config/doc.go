// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config reads process configuration from an ordered set of sources.
//
// Sources are applied in the order given to [Read] and later sources override
// values set by earlier ones. Keys are case-insensitive so a value set by the
// environment variable DATABASE_URI overrides a YAML key named database_uri.
//
// A typical source chain looks like:
//
//	m, err := config.Read(
//		config.Map(defaults),
//		config.FromYaml(config.RenderTemplate(config.NewFileReader(os.DirFS("."), "config.yaml"))),
//		config.FromDir(os.DirFS("/run/secrets")),
//		config.FromEnv(config.Alias("DATABASE_URL", "DATABASE_URI")),
//	)
package config
