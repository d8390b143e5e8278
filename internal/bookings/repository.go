package bookings

import (
	"context"
	"fmt"
	"time"

	"billetter/internal/payments"
	"billetter/internal/seats"

	"gorm.io/gorm"
)

// PaymentAggregate is everything initiate-payment needs in one query.
type PaymentAggregate struct {
	BookingID  int64
	EventTitle string
	TotalPrice float64
	SeatCount  int
	UserEmail  string
}

// LatestPayment is the most recent transaction of a booking.
type LatestPayment struct {
	Status        string
	TransactionID string
}

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id int64) (*Booking, error)
	BelongsToUser(ctx context.Context, bookingID, userID int64) (bool, error)
	GetEventID(ctx context.Context, bookingID int64) (int64, error)
	ListWithSeats(ctx context.Context, userID int64) ([]BookingResponse, error)

	// CancelTx frees the booking's RESERVED seats and marks it cancelled
	// in one transaction. Returns the freed seat ids.
	CancelTx(ctx context.Context, bookingID int64) ([]int64, error)

	// Payment plumbing
	GetPaymentAggregate(ctx context.Context, bookingID, userID int64) (*PaymentAggregate, error)
	CreatePaymentTx(ctx context.Context, bookingID int64, transactionID, orderID string, amount float64) error
	GetLatestPayment(ctx context.Context, bookingID, userID int64) (*LatestPayment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) BelongsToUser(ctx context.Context, bookingID, userID int64) (bool, error) {
	var exists bool
	err := r.db.WithContext(ctx).Raw(
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ? AND user_id = ?)`,
		bookingID, userID).
		Scan(&exists).Error
	if err != nil {
		return false, fmt.Errorf("failed to check booking ownership: %w", err)
	}
	return exists, nil
}

func (r *repository) GetEventID(ctx context.Context, bookingID int64) (int64, error) {
	var eventID int64
	err := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", bookingID).
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

func (r *repository) ListWithSeats(ctx context.Context, userID int64) ([]BookingResponse, error) {
	rows, err := r.db.WithContext(ctx).Raw(`
		SELECT b.id AS bid, b.event_id AS eid, s.id AS sid
		FROM bookings b
		LEFT JOIN seats s ON s.booking_id = b.id
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, s.id`, userID).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var order []int64
	grouped := make(map[int64]*BookingResponse)
	for rows.Next() {
		var bid, eid int64
		var sid *int64
		if err := rows.Scan(&bid, &eid, &sid); err != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", err)
		}
		entry, ok := grouped[bid]
		if !ok {
			entry = &BookingResponse{ID: bid, EventID: eid, Seats: []BookingSeat{}}
			grouped[bid] = entry
			order = append(order, bid)
		}
		if sid != nil {
			entry.Seats = append(entry.Seats, BookingSeat{ID: *sid})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking rows: %w", err)
	}

	result := make([]BookingResponse, 0, len(order))
	for _, bid := range order {
		result = append(result, *grouped[bid])
	}
	return result, nil
}

func (r *repository) CancelTx(ctx context.Context, bookingID int64) ([]int64, error) {
	var freed []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			UPDATE seats
			SET status = ?, booking_id = NULL
			WHERE booking_id = ? AND status = ?
			RETURNING id`, seats.StatusFree, bookingID, seats.StatusReserved).
			Scan(&freed).Error; err != nil {
			return fmt.Errorf("failed to free seats: %w", err)
		}

		if err := tx.Model(&Booking{}).
			Where("id = ?", bookingID).
			Update("status", StatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return freed, nil
}

func (r *repository) GetPaymentAggregate(ctx context.Context, bookingID, userID int64) (*PaymentAggregate, error) {
	var agg PaymentAggregate
	err := r.db.WithContext(ctx).Raw(`
		SELECT b.id AS booking_id, e.title AS event_title,
		       COALESCE(SUM(s.price), 0) AS total_price,
		       COUNT(s.id) AS seat_count,
		       u.email AS user_email
		FROM bookings b
		JOIN events e ON e.id = b.event_id
		JOIN users u ON u.user_id = b.user_id
		LEFT JOIN seats s ON s.booking_id = b.id AND s.status = ?
		WHERE b.id = ? AND b.user_id = ?
		GROUP BY b.id, e.title, u.email
		HAVING COUNT(s.id) > 0`, seats.StatusReserved, bookingID, userID).
		Scan(&agg).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate booking: %w", err)
	}
	if agg.BookingID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &agg, nil
}

func (r *repository) CreatePaymentTx(ctx context.Context, bookingID int64, transactionID, orderID string, amount float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pt := payments.PaymentTransaction{
			BookingID:     bookingID,
			TransactionID: transactionID,
			OrderID:       orderID,
			Amount:        amount,
			Status:        payments.TxPending,
			CreatedAt:     time.Now().UTC(),
		}
		if err := tx.Create(&pt).Error; err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		if err := tx.Model(&Booking{}).
			Where("id = ?", bookingID).
			Update("status", StatusPendingPayment).Error; err != nil {
			return fmt.Errorf("failed to update booking: %w", err)
		}

		return nil
	})
}

func (r *repository) GetLatestPayment(ctx context.Context, bookingID, userID int64) (*LatestPayment, error) {
	var lp LatestPayment
	err := r.db.WithContext(ctx).Raw(`
		SELECT pt.status, pt.transaction_id
		FROM payment_transactions pt
		JOIN bookings b ON b.id = pt.booking_id
		WHERE pt.booking_id = ? AND b.user_id = ?
		ORDER BY pt.created_at DESC
		LIMIT 1`, bookingID, userID).
		Scan(&lp).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get payment status: %w", err)
	}
	if lp.TransactionID == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return &lp, nil
}
