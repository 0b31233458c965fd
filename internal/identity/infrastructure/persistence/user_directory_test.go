package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/identity/domain"
	sharedDomain "github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/dbtest"
)

func TestUserDirectory_EnsureExists(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.SQLite(t)
	clock := sharedDomain.NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	dir := NewUserDirectory(conn, clock)
	userID := uuid.New()

	require.NoError(t, dir.EnsureExists(ctx, userID))
	clock.Advance(time.Hour)
	require.NoError(t, dir.EnsureExists(ctx, userID), "second call is a no-op")

	var (
		count     int
		createdAt string
	)
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(1), MIN(created_at) FROM users`).Scan(&count, &createdAt))
	assert.Equal(t, 1, count)
	assert.Equal(t, "2024-01-01T00:00:00.000000Z", createdAt)

	assert.ErrorIs(t, dir.EnsureExists(ctx, uuid.Nil), domain.ErrInvalidUser)
}
