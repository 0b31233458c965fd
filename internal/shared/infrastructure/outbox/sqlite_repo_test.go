package outbox_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/database/dbtest"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/outbox"
)

func newSQLiteMessage(t *testing.T, routingKey string, at time.Time) *outbox.Message {
	t.Helper()
	event := domain.NewBaseEvent(uuid.New(), "subscription", routingKey, at)
	event.SetMetadata(domain.EventMetadata{CorrelationID: uuid.New()})
	msg, err := outbox.NewMessage(&event)
	require.NoError(t, err)
	return msg
}

func TestSQLiteRepository_SaveAndGetUnpublished(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.SQLite(t)
	repo := outbox.NewRepository(conn)
	require.IsType(t, &outbox.SQLiteRepository{}, repo)

	first := newSQLiteMessage(t, "subscription.created", epoch)
	second := newSQLiteMessage(t, "delivery.derived", epoch.Add(time.Second))
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{first, second}))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)

	got, err := repo.GetUnpublished(ctx, epoch.Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, first.EventID, got[0].EventID)
	assert.Equal(t, first.AggregateID, got[0].AggregateID)
	assert.Equal(t, "subscription.created", got[0].RoutingKey)
	assert.Equal(t, epoch, got[0].CreatedAt)
	assert.JSONEq(t, string(first.Metadata), string(got[0].Metadata))
	assert.Nil(t, got[0].PublishedAt)

	limited, err := repo.GetUnpublished(ctx, epoch.Add(time.Minute), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := outbox.NewSQLiteRepository(dbtest.SQLite(t))

	published := newSQLiteMessage(t, "subscription.paused", epoch)
	retrying := newSQLiteMessage(t, "delivery.failed", epoch)
	dead := newSQLiteMessage(t, "subscription.cancelled", epoch)
	for _, m := range []*outbox.Message{published, retrying, dead} {
		require.NoError(t, repo.Save(ctx, m))
	}

	require.NoError(t, repo.MarkPublished(ctx, published.ID, epoch.Add(time.Minute)))
	require.NoError(t, repo.MarkFailed(ctx, retrying.ID, "broker down", epoch.Add(time.Hour)))
	require.NoError(t, repo.MarkDead(ctx, dead.ID, "poison", epoch.Add(time.Minute)))

	got, err := repo.GetUnpublished(ctx, epoch.Add(30*time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = repo.GetUnpublished(ctx, epoch.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, retrying.ID, got[0].ID)
	assert.Equal(t, 1, got[0].RetryCount)
	require.NotNil(t, got[0].LastError)
	assert.Equal(t, "broker down", *got[0].LastError)

	deleted, err := repo.DeleteOld(ctx, epoch.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLiteRepository_SaveBatchIsAtomic(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.SQLite(t)
	repo := outbox.NewSQLiteRepository(conn)

	duplicate := newSQLiteMessage(t, "subscription.created", epoch)
	require.NoError(t, repo.Save(ctx, duplicate))

	again := *duplicate
	fresh := newSQLiteMessage(t, "subscription.updated", epoch)
	err := repo.SaveBatch(ctx, []*outbox.Message{fresh, &again})
	require.Error(t, err)

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&count))
	assert.Equal(t, 1, count)
}
