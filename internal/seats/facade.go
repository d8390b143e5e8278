package seats

import (
	"context"
	"time"

	"billetter/internal/shared/constants"
	"billetter/pkg/cache"
	"billetter/pkg/logger"
)

// CacheFacade is the read-through cache over the seats table. Anything it
// returns is a hint for viewers; invariants are established only by
// database transactions.
type CacheFacade struct {
	repo  Repository
	cache cache.Service
	ttl   time.Duration
}

func NewCacheFacade(repo Repository, cacheService cache.Service, ttl time.Duration) *CacheFacade {
	return &CacheFacade{
		repo:  repo,
		cache: cacheService,
		ttl:   ttl,
	}
}

// GetSeats returns the seat map for an event. Cache errors fall through
// to the database. FREE seats carrying an active lock are upgraded to the
// display value SELECTED so viewers do not attempt doomed selections.
func (f *CacheFacade) GetSeats(ctx context.Context, eventID int64) ([]Seat, error) {
	key := constants.BuildSeatsCacheKey(eventID)

	var seats []Seat
	if err := f.cache.Get(ctx, key, &seats); err != nil {
		seats, err = f.repo.GetSeatsByEventID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if setErr := f.cache.Set(ctx, key, seats, f.ttl); setErr != nil {
			logger.GetDefault().Warn("failed to cache seats", "event_id", eventID, "error", setErr)
		}
	}

	f.overlayLocks(ctx, seats)
	return seats, nil
}

// Invalidate drops the cached seat map for an event.
func (f *CacheFacade) Invalidate(ctx context.Context, eventID int64) {
	if err := f.cache.Delete(ctx, constants.BuildSeatsCacheKey(eventID)); err != nil {
		logger.GetDefault().Warn("failed to invalidate seats cache", "event_id", eventID, "error", err)
	}
}

// overlayLocks pipelines EXISTS over the lock keys of FREE seats and
// rewrites the returned status in place. Redis failures leave the seats
// untouched.
func (f *CacheFacade) overlayLocks(ctx context.Context, seats []Seat) {
	var keys []string
	var indexes []int
	for i := range seats {
		if seats[i].Status == StatusFree {
			keys = append(keys, constants.BuildSeatLockKey(seats[i].ID))
			indexes = append(indexes, i)
		}
	}
	if len(keys) == 0 {
		return
	}

	locked, err := f.cache.ExistsMany(ctx, keys)
	if err != nil {
		return
	}

	for pos, i := range indexes {
		if locked[pos] {
			seats[i].Status = StatusSelected
		}
	}
}
