package redislock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "lock:"), mr
}

func TestTryLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	locker, mr := newLocker(t)

	lock, err := locker.TryLock(ctx, "autocomplete", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:autocomplete"))

	_, err = locker.TryLock(ctx, "autocomplete", time.Minute)
	assert.ErrorIs(t, err, ErrNotObtained)

	require.NoError(t, lock.Release(ctx))
	assert.False(t, mr.Exists("lock:autocomplete"))

	again, err := locker.TryLock(ctx, "autocomplete", time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLock_ExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	locker, mr := newLocker(t)

	lock, err := locker.TryLock(ctx, "autocomplete", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	other, err := locker.TryLock(ctx, "autocomplete", time.Minute)
	require.NoError(t, err)

	// чужую блокировку снять нельзя
	assert.ErrorIs(t, lock.Release(ctx), ErrNotHeld)
	assert.ErrorIs(t, lock.Refresh(ctx, time.Minute), ErrNotHeld)
	require.NoError(t, other.Refresh(ctx, time.Minute))
	require.NoError(t, other.Release(ctx))
}
