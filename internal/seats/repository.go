package seats

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Repository interface {
	GetSeatEventID(ctx context.Context, id int64) (int64, error)
	GetSeatsByEventID(ctx context.Context, eventID int64) ([]Seat, error)

	// Conditional updates: the row count is the verdict, no row locks held.
	ReserveSeat(ctx context.Context, seatID, bookingID int64) (bool, error)
	FreeSeat(ctx context.Context, seatID int64) (bool, error)

	// Ownership checks
	IsReservedByUser(ctx context.Context, seatID, userID int64) (bool, error)

	// Orphan-lock verification for the cleanup service
	SeatHoldsLock(ctx context.Context, seatID int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSeatEventID(ctx context.Context, id int64) (int64, error) {
	var eventID int64
	err := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ?", id).
		Select("event_id").
		Scan(&eventID).Error
	if err != nil {
		return 0, err
	}
	if eventID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return eventID, nil
}

func (r *repository) GetSeatsByEventID(ctx context.Context, eventID int64) ([]Seat, error) {
	var seats []Seat
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("row, number").
		Find(&seats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	for i := range seats {
		seats[i].Status = NormalizeStatus(seats[i].Status)
	}
	return seats, nil
}

// ReserveSeat performs the authoritative FREE -> RESERVED transition. A
// false return means the seat was not FREE in the database.
func (r *repository) ReserveSeat(ctx context.Context, seatID, bookingID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ? AND status = ?", seatID, StatusFree).
		Updates(map[string]interface{}{
			"status":     StatusReserved,
			"booking_id": bookingID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reserve seat %d: %w", seatID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// FreeSeat performs the RESERVED -> FREE transition.
func (r *repository) FreeSeat(ctx context.Context, seatID int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ? AND status = ?", seatID, StatusReserved).
		Updates(map[string]interface{}{
			"status":     StatusFree,
			"booking_id": nil,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to free seat %d: %w", seatID, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) IsReservedByUser(ctx context.Context, seatID, userID int64) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS(
		  SELECT 1
		  FROM seats s
		  JOIN bookings b ON b.id = s.booking_id
		  WHERE s.id = ? AND s.status = ? AND b.user_id = ?
		)`, seatID, StatusReserved, userID).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check seat ownership: %w", err)
	}
	return exists, nil
}

// SeatHoldsLock reports whether a seat is in a state that legitimizes an
// EKS lock. Anything else means the lock is an orphan.
func (r *repository) SeatHoldsLock(ctx context.Context, seatID int64) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(
		`SELECT EXISTS(SELECT 1 FROM seats WHERE id = ? AND status IN (?, ?))`,
		seatID, StatusReserved, StatusSold).
		Scan(&exists).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check seat status: %w", err)
	}
	return exists, nil
}
