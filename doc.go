// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package keystone runs HTTP services built from a typed configuration.
//
// [Run] reads config sources, unmarshals them into the builder's config
// type, validates it when the type knows how, builds the [App] and runs
// it. Every stage fails with its own error type so callers can tell a
// bad environment from a failure while serving.
//
//	err := keystone.Run(
//	    ctx,
//	    appbuilder.Recover(service.Builder()),
//	    settings.Sources(os.DirFS(settings.SecretsDir))...,
//	)
package keystone
