// pkg/db/dbtest/dbtest.go

// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"membership-service/pkg/db"
)

// Config returns the configuration of a fresh database file inside t's temp dir.
func Config(t testing.TB) db.Config {
	t.Helper()
	return db.Config{
		Driver:       db.DriverSQLite,
		Path:         filepath.Join(t.TempDir(), "membership.db"),
		MaxOpenConns: 8,
	}
}

// Open creates a migrated database and closes it when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	conn, err := db.Open(ctx, Config(t))
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = conn.Close() })

	_, err = db.Migrate(ctx, conn, zerolog.Nop())
	require.NoError(t, err, "migrate test database")
	return conn
}

// NewFactory returns a session factory over a fresh migrated database.
func NewFactory(t testing.TB) (*db.SessionFactory, *sqlx.DB) {
	t.Helper()
	conn := Open(t)
	return db.NewSessionFactory(conn, zerolog.Nop(), nil), conn
}
