package seats

import (
	"context"
	"fmt"
	"time"

	"billetter/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// LockStore gates seat contention with short-lived Redis keys. A lock is
// a hint that narrows the race window; the database conditional update
// stays the authority.
type LockStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewLockStore(redisClient *redis.Client, ttl time.Duration) *LockStore {
	return &LockStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Acquire attempts SET seat:{id}:reserved = userID NX EX ttl. False means
// another contender already holds the seat.
func (l *LockStore) Acquire(ctx context.Context, seatID, userID int64) (bool, error) {
	ok, err := l.redis.SetNX(ctx, constants.BuildSeatLockKey(seatID), userID, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire seat lock %d: %w", seatID, err)
	}
	return ok, nil
}

// Release deletes a single seat lock.
func (l *LockStore) Release(ctx context.Context, seatID int64) error {
	if err := l.redis.Del(ctx, constants.BuildSeatLockKey(seatID)).Err(); err != nil {
		return fmt.Errorf("failed to release seat lock %d: %w", seatID, err)
	}
	return nil
}

// ReleaseMany pipelines deletion of a batch of seat locks.
func (l *LockStore) ReleaseMany(ctx context.Context, seatIDs []int64) error {
	if len(seatIDs) == 0 {
		return nil
	}

	pipe := l.redis.Pipeline()
	for _, id := range seatIDs {
		pipe.Del(ctx, constants.BuildSeatLockKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to release seat locks: %w", err)
	}
	return nil
}

// Holder returns the user holding a seat lock, or 0 when unlocked.
func (l *LockStore) Holder(ctx context.Context, seatID int64) (int64, error) {
	holder, err := l.redis.Get(ctx, constants.BuildSeatLockKey(seatID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read seat lock %d: %w", seatID, err)
	}
	return holder, nil
}

// ScanLockKeys returns every live seat-lock key. Used by the cleanup
// service to hunt orphans.
func (l *LockStore) ScanLockKeys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := l.redis.Scan(ctx, 0, constants.PATTERN_SEAT_ANY, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan seat locks: %w", err)
	}
	return keys, nil
}

// DeleteKeys removes raw lock keys found by ScanLockKeys.
func (l *LockStore) DeleteKeys(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete lock keys: %w", err)
	}
	return nil
}
