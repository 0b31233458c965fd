package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xl-c111/Flora-sub001/internal/shared/domain"
	"github.com/xl-c111/Flora-sub001/internal/shared/infrastructure/lock"
)

func newRedisLocker(t *testing.T) (*lock.RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return lock.NewRedisLocker(client), mr
}

func TestRedisLocker_ExclusiveUntilReleased(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	lease, ok, err := locker.TryAcquire(ctx, "due-scan", 30*time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists("flora:lock:due-scan"))
	assert.Equal(t, 30*time.Second, mr.TTL("flora:lock:due-scan"))

	_, ok, err = locker.TryAcquire(ctx, "due-scan", 30*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("flora:lock:due-scan"))

	_, ok, err = locker.TryAcquire(ctx, "due-scan", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLocker_ExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	ctx := context.Background()
	locker, mr := newRedisLocker(t)

	stale, ok, err := locker.TryAcquire(ctx, "due-scan", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = locker.TryAcquire(ctx, "due-scan", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("flora:lock:due-scan"))
}

func TestRedisLocker_ConnectionError(t *testing.T) {
	locker, mr := newRedisLocker(t)
	mr.Close()

	_, ok, err := locker.TryAcquire(context.Background(), "due-scan", time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	clock := domain.NewFixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	locker := lock.NewLocalLocker(clock)

	first, ok, err := locker.TryAcquire(ctx, "due-scan", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, _ = locker.TryAcquire(ctx, "due-scan", time.Minute)
	assert.False(t, ok)

	_, ok, _ = locker.TryAcquire(ctx, "other", time.Minute)
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	second, ok, _ := locker.TryAcquire(ctx, "due-scan", time.Minute)
	require.True(t, ok)

	// The expired lease must not free the new holder.
	require.NoError(t, first.Release(ctx))
	_, ok, _ = locker.TryAcquire(ctx, "due-scan", time.Minute)
	assert.False(t, ok)

	require.NoError(t, second.Release(ctx))
	_, ok, _ = locker.TryAcquire(ctx, "due-scan", time.Minute)
	assert.True(t, ok)
}
