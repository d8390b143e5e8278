package seats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"billetter/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSeatRepo implements Repository with function fields.
type fakeSeatRepo struct {
	getSeatEventID   func(ctx context.Context, id int64) (int64, error)
	getSeatsByEvent  func(ctx context.Context, eventID int64) ([]Seat, error)
	reserveSeat      func(ctx context.Context, seatID, bookingID int64) (bool, error)
	freeSeat         func(ctx context.Context, seatID int64) (bool, error)
	isReservedByUser func(ctx context.Context, seatID, userID int64) (bool, error)
	seatHoldsLock    func(ctx context.Context, seatID int64) (bool, error)
}

func (f *fakeSeatRepo) GetSeatEventID(ctx context.Context, id int64) (int64, error) {
	if f.getSeatEventID != nil {
		return f.getSeatEventID(ctx, id)
	}
	return 1, nil
}

func (f *fakeSeatRepo) GetSeatsByEventID(ctx context.Context, eventID int64) ([]Seat, error) {
	return f.getSeatsByEvent(ctx, eventID)
}

func (f *fakeSeatRepo) ReserveSeat(ctx context.Context, seatID, bookingID int64) (bool, error) {
	return f.reserveSeat(ctx, seatID, bookingID)
}

func (f *fakeSeatRepo) FreeSeat(ctx context.Context, seatID int64) (bool, error) {
	return f.freeSeat(ctx, seatID)
}

func (f *fakeSeatRepo) IsReservedByUser(ctx context.Context, seatID, userID int64) (bool, error) {
	return f.isReservedByUser(ctx, seatID, userID)
}

func (f *fakeSeatRepo) SeatHoldsLock(ctx context.Context, seatID int64) (bool, error) {
	return f.seatHoldsLock(ctx, seatID)
}

func newTestFacade(t *testing.T, repo Repository) (*CacheFacade, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheFacade(repo, cache.NewService(client), 24*time.Hour), mr
}

func TestFacadeLoadsAndCaches(t *testing.T) {
	loads := 0
	repo := &fakeSeatRepo{
		getSeatsByEvent: func(ctx context.Context, eventID int64) ([]Seat, error) {
			loads++
			return []Seat{
				{ID: 1, EventID: eventID, Row: 1, Number: 1, Status: StatusFree},
				{ID: 2, EventID: eventID, Row: 1, Number: 2, Status: StatusSold},
			}, nil
		},
	}
	facade, mr := newTestFacade(t, repo)
	ctx := context.Background()

	seats, err := facade.GetSeats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("seats:7"))

	// Second read is served from the cache.
	_, err = facade.GetSeats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestFacadeOverlaysLockedSeatsAsSelected(t *testing.T) {
	repo := &fakeSeatRepo{
		getSeatsByEvent: func(ctx context.Context, eventID int64) ([]Seat, error) {
			return []Seat{
				{ID: 1, EventID: eventID, Status: StatusFree},
				{ID: 2, EventID: eventID, Status: StatusFree},
				{ID: 3, EventID: eventID, Status: StatusReserved},
			}, nil
		},
	}
	facade, mr := newTestFacade(t, repo)
	ctx := context.Background()

	// Seat 2 carries an active lock.
	mr.Set("seat:2:reserved", "15")

	seats, err := facade.GetSeats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	assert.Equal(t, StatusFree, seats[0].Status)
	assert.Equal(t, StatusSelected, seats[1].Status)
	assert.Equal(t, StatusReserved, seats[2].Status)

	// The display value never reaches the cached copy.
	raw, err := mr.Get("seats:7")
	require.NoError(t, err)
	var cached []Seat
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, StatusFree, cached[1].Status)
}

func TestFacadeInvalidateDropsCache(t *testing.T) {
	repo := &fakeSeatRepo{
		getSeatsByEvent: func(ctx context.Context, eventID int64) ([]Seat, error) {
			return []Seat{{ID: 1, EventID: eventID, Status: StatusFree}}, nil
		},
	}
	facade, mr := newTestFacade(t, repo)
	ctx := context.Background()

	_, err := facade.GetSeats(ctx, 3)
	require.NoError(t, err)
	require.True(t, mr.Exists("seats:3"))

	facade.Invalidate(ctx, 3)
	assert.False(t, mr.Exists("seats:3"))
}
