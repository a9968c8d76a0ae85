// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/z5labs/keystone/database"

	"github.com/stretchr/testify/require"
)

// URI returns a sqlite database url for a new file under a temporary
// directory. WAL mode lets a reader see the last committed state while
// another connection holds an open write transaction.
func URI(t testing.TB) string {
	path := filepath.Join(t.TempDir(), "test.db")
	return "sqlite:///" + path + "?_journal_mode=WAL&_busy_timeout=5000"
}

// New returns a [database.Provider] for a fresh sqlite database with the
// given models migrated. It's closed when the test ends.
func New(t testing.TB, models ...any) *database.Provider {
	t.Helper()

	p := database.NewProvider(
		database.Config{
			URI:         URI(t),
			PoolSize:    4,
			PoolTimeout: 5 * time.Second,
		},
		database.Logger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	t.Cleanup(func() {
		p.Close()
	})

	err := p.AutoMigrate(context.Background(), models...)
	require.NoError(t, err)
	return p
}
