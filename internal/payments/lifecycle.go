package payments

import (
	"context"
	"fmt"

	"billetter/internal/seats"
	"billetter/pkg/logger"
	"billetter/pkg/metrics"

	"gorm.io/gorm"
)

// Notifier publishes booking lifecycle events after payment resolution.
// Best-effort: a nil Notifier disables publishing.
type Notifier interface {
	BookingConfirmed(ctx context.Context, bookingID, eventID int64, paymentID string)
	BookingReleased(ctx context.Context, bookingID, eventID int64, paymentID, reason string)
}

// Lifecycle drives payment transactions and their bookings to terminal
// states. Every handler is one database transaction of conditional
// updates followed by best-effort Redis cleanup, so replays and races
// between the webhook, the landing pages and the cleanup service all
// collapse to no-ops after the first committer.
type Lifecycle struct {
	db       *gorm.DB
	locks    *seats.LockStore
	facade   *seats.CacheFacade
	notifier Notifier
}

func NewLifecycle(db *gorm.DB, locks *seats.LockStore, facade *seats.CacheFacade, notifier Notifier) *Lifecycle {
	return &Lifecycle{
		db:       db,
		locks:    locks,
		facade:   facade,
		notifier: notifier,
	}
}

// ProcessSuccessfulPayment completes the transaction, marks the booking
// paid and sells its reserved seats.
func (l *Lifecycle) ProcessSuccessfulPayment(ctx context.Context, paymentID string, bookingID, eventID int64) error {
	var freed []int64
	resolved := false

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE payment_transactions SET status = ?, updated_at = NOW()
			 WHERE transaction_id = ? AND status = ?`,
			TxCompleted, paymentID, TxPending)
		if res.Error != nil {
			return fmt.Errorf("failed to complete transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Someone else already resolved this payment.
			return nil
		}
		resolved = true

		if err := tx.Exec(
			`UPDATE bookings SET status = 'paid', updated_at = NOW() WHERE id = ?`,
			bookingID).Error; err != nil {
			return fmt.Errorf("failed to mark booking paid: %w", err)
		}

		if err := tx.Raw(
			`UPDATE seats SET status = ? WHERE booking_id = ? AND status = ? RETURNING id`,
			seats.StatusSold, bookingID, seats.StatusReserved).
			Scan(&freed).Error; err != nil {
			return fmt.Errorf("failed to sell seats: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}
	if !resolved {
		return nil
	}

	l.cleanupAfterCommit(ctx, eventID, freed)
	metrics.PaymentsResolved.WithLabelValues(TxCompleted).Inc()
	logger.GetDefault().Info("payment completed", "payment_id", paymentID, "seats_sold", len(freed))

	if l.notifier != nil {
		l.notifier.BookingConfirmed(ctx, bookingID, eventID, paymentID)
	}
	return nil
}

// ProcessFailedPayment fails the transaction, frees the reserved seats
// and removes the booking.
func (l *Lifecycle) ProcessFailedPayment(ctx context.Context, paymentID string, bookingID, eventID int64) error {
	return l.releaseBooking(ctx, paymentID, bookingID, eventID, TxFailed)
}

// CleanupExpiredPayment expires the transaction, frees the reserved
// seats and removes the booking. Called by the cleanup service.
func (l *Lifecycle) CleanupExpiredPayment(ctx context.Context, paymentID string, bookingID, eventID int64) error {
	return l.releaseBooking(ctx, paymentID, bookingID, eventID, TxExpired)
}

func (l *Lifecycle) releaseBooking(ctx context.Context, paymentID string, bookingID, eventID int64, terminal string) error {
	var freed []int64
	resolved := false

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`UPDATE payment_transactions SET status = ?, updated_at = NOW()
			 WHERE transaction_id = ? AND status = ?`,
			terminal, paymentID, TxPending)
		if res.Error != nil {
			return fmt.Errorf("failed to update transaction: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		resolved = true

		if err := tx.Raw(
			`UPDATE seats SET status = ?, booking_id = NULL
			 WHERE booking_id = ? AND status = ? RETURNING id`,
			seats.StatusFree, bookingID, seats.StatusReserved).
			Scan(&freed).Error; err != nil {
			return fmt.Errorf("failed to free seats: %w", err)
		}

		if err := tx.Exec(`DELETE FROM bookings WHERE id = ?`, bookingID).Error; err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}
	if !resolved {
		return nil
	}

	l.cleanupAfterCommit(ctx, eventID, freed)
	metrics.PaymentsResolved.WithLabelValues(terminal).Inc()
	logger.GetDefault().Info("payment released", "payment_id", paymentID, "status", terminal, "seats_freed", len(freed))

	if l.notifier != nil {
		l.notifier.BookingReleased(ctx, bookingID, eventID, paymentID, terminal)
	}
	return nil
}

// ResolveBooking maps a gateway payment id onto (booking_id, event_id).
func (l *Lifecycle) ResolveBooking(ctx context.Context, paymentID string) (bookingID, eventID int64, err error) {
	var row struct {
		BookingID int64
		EventID   int64
	}
	err = l.db.WithContext(ctx).Raw(`
		SELECT b.id AS booking_id, b.event_id AS event_id
		FROM bookings b
		JOIN payment_transactions pt ON pt.booking_id = b.id
		WHERE pt.transaction_id = ?`, paymentID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, fmt.Errorf("failed to resolve payment %s: %w", paymentID, err)
	}
	if row.BookingID == 0 {
		return 0, 0, gorm.ErrRecordNotFound
	}
	return row.BookingID, row.EventID, nil
}

func (l *Lifecycle) cleanupAfterCommit(ctx context.Context, eventID int64, seatIDs []int64) {
	if err := l.locks.ReleaseMany(ctx, seatIDs); err != nil {
		logger.GetDefault().Warn("failed to clear seat locks", "error", err)
	}
	l.facade.Invalidate(ctx, eventID)
}
