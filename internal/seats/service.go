package seats

import (
	"context"
	"errors"
	"fmt"

	"billetter/internal/shared/apperror"
	"billetter/pkg/logger"
	"billetter/pkg/metrics"

	"gorm.io/gorm"
)

// BookingStore is the slice of the bookings repository the seat engine
// needs (kept as a local interface to avoid a package cycle).
type BookingStore interface {
	BelongsToUser(ctx context.Context, bookingID, userID int64) (bool, error)
}

type Service interface {
	// Core seat flow
	Select(ctx context.Context, userID, bookingID, seatID int64) error
	Release(ctx context.Context, userID, seatID int64) error

	// Listing through the cache facade
	List(ctx context.Context, q ListQuery) ([]Seat, error)
}

type service struct {
	repo     Repository
	bookings BookingStore
	locks    *LockStore
	facade   *CacheFacade
}

func NewService(repo Repository, bookings BookingStore, locks *LockStore, facade *CacheFacade) Service {
	return &service{
		repo:     repo,
		bookings: bookings,
		locks:    locks,
		facade:   facade,
	}
}

// Select walks a seat from FREE to RESERVED on behalf of a booking. The
// lock serializes contenders cheaply; the conditional update decides. If
// either side rejects, both are unwound.
func (s *service) Select(ctx context.Context, userID, bookingID, seatID int64) error {
	belongs, err := s.bookings.BelongsToUser(ctx, bookingID, userID)
	if err != nil {
		return fmt.Errorf("failed to check booking ownership: %w", err)
	}
	if !belongs {
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return apperror.New(apperror.SeatConflict, "Бронирование не найдено")
	}

	acquired, err := s.locks.Acquire(ctx, seatID, userID)
	if err != nil {
		return fmt.Errorf("failed to acquire seat lock: %w", err)
	}
	if !acquired {
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return apperror.New(apperror.SeatConflict, "Место уже зарезервировано")
	}

	reserved, err := s.repo.ReserveSeat(ctx, seatID, bookingID)
	if err != nil {
		// The hint must not outlive a failed authority update.
		s.releaseLockBestEffort(ctx, seatID)
		return fmt.Errorf("failed to reserve seat: %w", err)
	}
	if !reserved {
		s.releaseLockBestEffort(ctx, seatID)
		metrics.SeatSelections.WithLabelValues("conflict").Inc()
		return apperror.New(apperror.SeatConflict, "Не удалось добавить место в бронь")
	}

	if eventID, err := s.repo.GetSeatEventID(ctx, seatID); err == nil {
		s.facade.Invalidate(ctx, eventID)
	}

	metrics.SeatSelections.WithLabelValues("ok").Inc()
	return nil
}

// Release walks a seat back from RESERVED to FREE when the caller owns
// the booking holding it.
func (s *service) Release(ctx context.Context, userID, seatID int64) error {
	owned, err := s.repo.IsReservedByUser(ctx, seatID, userID)
	if err != nil {
		return fmt.Errorf("failed to check seat ownership: %w", err)
	}
	if !owned {
		return apperror.New(apperror.Forbidden, "Место не найдено или не принадлежит вам")
	}

	freed, err := s.repo.FreeSeat(ctx, seatID)
	if err != nil {
		return fmt.Errorf("failed to free seat: %w", err)
	}
	if !freed {
		return apperror.New(apperror.SeatConflict, "Не удалось освободить место")
	}

	s.releaseLockBestEffort(ctx, seatID)

	if eventID, err := s.repo.GetSeatEventID(ctx, seatID); err == nil {
		s.facade.Invalidate(ctx, eventID)
	}

	return nil
}

func (s *service) List(ctx context.Context, q ListQuery) ([]Seat, error) {
	q.Normalize()

	seats, err := s.facade.GetSeats(ctx, q.EventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []Seat{}, nil
		}
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	var filtered []Seat
	for _, seat := range seats {
		if q.Row != nil && seat.Row != *q.Row {
			continue
		}
		if q.Status != nil && seat.Status != *q.Status {
			continue
		}
		filtered = append(filtered, seat)
	}

	start := (q.Page - 1) * q.PageSize
	if start >= len(filtered) {
		return []Seat{}, nil
	}
	end := start + q.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], nil
}

func (s *service) releaseLockBestEffort(ctx context.Context, seatID int64) {
	if err := s.locks.Release(ctx, seatID); err != nil {
		// TTL bounds the damage if this fails.
		logger.GetDefault().Warn("failed to release seat lock", "seat_id", seatID, "error", err)
	}
}
