package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/colloquy/pkg/adapters/redis"
	"github.com/aretw0/colloquy/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_LockUnlock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "42", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, unlock)

	assert.True(t, mr.Exists("test:lock:42"), "Lock key should be set in Redis")

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("test:lock:42"), "Lock key should be removed after unlock")
}

func TestRedisLocker_Contention(t *testing.T) {
	mr, client := newClient(t)
	locker1 := redis.NewLocker(client, "test:")
	locker2 := redis.NewLocker(client, "test:", redis.WithRetryInterval(10*time.Millisecond))
	ctx := context.Background()

	unlock1, err := locker1.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)

	ctxTimeout, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = locker2.Lock(ctxTimeout, "shared", 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.WithinDuration(t, start.Add(300*time.Millisecond), time.Now(), 150*time.Millisecond, "Should block until timeout")

	require.NoError(t, unlock1(ctx))

	unlock2, err := locker2.Lock(ctx, "shared", 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock2(ctx) }()

	assert.True(t, mr.Exists("test:lock:shared"))
}

func TestRedisLocker_LostLock(t *testing.T) {
	mr, client := newClient(t)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "42", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, unlock(ctx), redis.ErrLockLost)
}

func TestRedisLocker_WithSessionManager(t *testing.T) {
	_, client := newClient(t)
	store := redis.NewFromClient(client)
	mgr := session.NewManager(store,
		session.WithLocker(redis.NewLocker(client, store.Prefix())),
		session.WithTagUniverse([]string{"cats", "dogs"}),
	)
	ctx := context.Background()

	require.NoError(t, mgr.AddTags(ctx, "42", "cats"))
	require.NoError(t, mgr.AddTags(ctx, "42", "cats"))

	tags, err := mgr.GetTags(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, 2, tags["cats"])
	assert.Equal(t, 0, tags["dogs"])
}
