// Package dbtest opens migrated throwaway databases for repository tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/migrations"
)

// SQLite returns an in-memory database with every migration applied.
// It is closed when the test ends.
func SQLite(t testing.TB) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{Driver: database.DriverSQLite, SQLitePath: sqlite.InMemory})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Up(ctx, conn)
	require.NoError(t, err)
	return conn
}
