package migrations_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/sqlite"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/migrations"
)

func TestUp_SQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: sqlite.InMemory})
	require.NoError(t, err)
	defer conn.Close()

	applied, err := migrations.Up(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	t.Run("is idempotent", func(t *testing.T) {
		applied, err := migrations.Up(ctx, conn)
		require.NoError(t, err)
		assert.Zero(t, applied)
	})

	t.Run("reports status", func(t *testing.T) {
		statuses, err := migrations.List(ctx, conn)
		require.NoError(t, err)
		require.Len(t, statuses, 2)
		for _, s := range statuses {
			assert.True(t, s.Applied, s.Path)
		}
	})

	t.Run("creates the due index", func(t *testing.T) {
		var name string
		err := conn.QueryRow(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_subscriptions_due'`).Scan(&name)
		require.NoError(t, err)
		assert.Equal(t, "idx_subscriptions_due", name)
	})
}
