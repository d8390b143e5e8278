package seats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockStore(t *testing.T) (*LockStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLockStore(client, 5*time.Minute), mr
}

func TestLockAcquireIsExclusive(t *testing.T) {
	locks, mr := newTestLockStore(t)
	ctx := context.Background()

	ok, err := locks.Acquire(ctx, 42, 1)
	require.NoError(t, err)
	require.True(t, ok)

	// A second contender is rejected while the key lives.
	ok, err = locks.Acquire(ctx, 42, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	// The original holder is recorded.
	holder, err := locks.Holder(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1), holder)

	// The key carries the configured TTL.
	assert.InDelta(t, (5 * time.Minute).Seconds(), mr.TTL("seat:42:reserved").Seconds(), 1)
}

func TestLockAcquireConcurrentContenders(t *testing.T) {
	locks, _ := newTestLockStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	winners := make(chan int64, 20)
	for u := int64(1); u <= 20; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			ok, err := locks.Acquire(ctx, 100, userID)
			if err == nil && ok {
				winners <- userID
			}
		}(u)
	}
	wg.Wait()
	close(winners)

	var count int
	for range winners {
		count++
	}
	assert.Equal(t, 1, count, "exactly one contender may pass the gate")
}

func TestLockRelease(t *testing.T) {
	locks, _ := newTestLockStore(t)
	ctx := context.Background()

	_, err := locks.Acquire(ctx, 7, 1)
	require.NoError(t, err)
	require.NoError(t, locks.Release(ctx, 7))

	// Released seat is up for grabs again.
	ok, err := locks.Acquire(ctx, 7, 2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockReleaseMany(t *testing.T) {
	locks, mr := newTestLockStore(t)
	ctx := context.Background()

	for _, id := range []int64{1, 2, 3} {
		_, err := locks.Acquire(ctx, id, 9)
		require.NoError(t, err)
	}

	require.NoError(t, locks.ReleaseMany(ctx, []int64{1, 2, 3}))
	for _, key := range []string{"seat:1:reserved", "seat:2:reserved", "seat:3:reserved"} {
		assert.False(t, mr.Exists(key), key)
	}

	// Empty input is a no-op.
	require.NoError(t, locks.ReleaseMany(ctx, nil))
}

func TestLockExpiresByTTL(t *testing.T) {
	locks, mr := newTestLockStore(t)
	ctx := context.Background()

	_, err := locks.Acquire(ctx, 5, 1)
	require.NoError(t, err)

	mr.FastForward(5*time.Minute + time.Second)

	ok, err := locks.Acquire(ctx, 5, 2)
	require.NoError(t, err)
	assert.True(t, ok, "expired lock must not block new contenders")
}

func TestScanLockKeys(t *testing.T) {
	locks, mr := newTestLockStore(t)
	ctx := context.Background()

	mr.Set("seat:11:reserved", "1")
	mr.Set("seat:12:reserved", "2")
	mr.Set("seats:4", "[]") // cache entry, not a lock

	keys, err := locks.ScanLockKeys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"seat:11:reserved", "seat:12:reserved"}, keys)

	require.NoError(t, locks.DeleteKeys(ctx, keys))
	assert.False(t, mr.Exists("seat:11:reserved"))
}
