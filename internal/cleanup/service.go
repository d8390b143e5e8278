package cleanup

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"billetter/internal/payments"
	"billetter/internal/seats"
	"billetter/internal/shared/config"
	"billetter/pkg/logger"
	"billetter/pkg/metrics"

	"gorm.io/gorm"
)

// Gateway is the slice of the payment gateway client a sweep needs.
type Gateway interface {
	CheckPaymentStatus(ctx context.Context, paymentID string) (*payments.CheckResponse, error)
}

// Service drives stuck records to quiescence: pending payments past
// their deadline, abandoned bookings, and Redis locks that no longer
// correspond to a held seat.
type Service struct {
	db        *gorm.DB
	locks     *seats.LockStore
	seatRepo  seats.Repository
	lifecycle *payments.Lifecycle
	gateway   Gateway
	cfg       config.CleanupConfig
}

func NewService(db *gorm.DB, locks *seats.LockStore, seatRepo seats.Repository,
	lifecycle *payments.Lifecycle, gateway Gateway, cfg config.CleanupConfig) *Service {
	return &Service{
		db:        db,
		locks:     locks,
		seatRepo:  seatRepo,
		lifecycle: lifecycle,
		gateway:   gateway,
		cfg:       cfg,
	}
}

// expiredPayment is one pending transaction past the payment deadline.
type expiredPayment struct {
	TransactionID string
	BookingID     int64
	EventID       int64
}

// RunFullSweep executes one complete pass.
func (s *Service) RunFullSweep(ctx context.Context) {
	log := logger.GetDefault()
	log.Info("cleanup sweep started")

	s.sweepExpiredPayments(ctx)
	s.sweepEmptyBookings(ctx)
	s.sweepStaleBookings(ctx)
	s.sweepOrphanedLocks(ctx)

	log.Info("cleanup sweep completed")
}

// sweepExpiredPayments resolves pending transactions older than the
// payment deadline. The gateway is consulted first: a payment that went
// through off-webhook must be completed, not expired.
func (s *Service) sweepExpiredPayments(ctx context.Context) {
	log := logger.GetDefault()

	var expired []expiredPayment
	err := s.db.WithContext(ctx).Raw(`
		SELECT pt.transaction_id, b.id AS booking_id, b.event_id
		FROM payment_transactions pt
		JOIN bookings b ON b.id = pt.booking_id
		WHERE pt.status = ? AND pt.created_at < ?`,
		payments.TxPending, time.Now().UTC().Add(-s.cfg.PaymentExpiry)).
		Scan(&expired).Error
	if err != nil {
		log.Error("failed to list expired payments", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	log.Info("expired payments found", "count", len(expired))

	for _, p := range expired {
		if s.settleThroughGateway(ctx, p) {
			continue
		}
		if err := s.lifecycle.CleanupExpiredPayment(ctx, p.TransactionID, p.BookingID, p.EventID); err != nil {
			log.Error("failed to expire payment", "payment_id", p.TransactionID, "error", err)
			continue
		}
		metrics.CleanupItems.WithLabelValues("expired_payment").Inc()
	}
}

// settleThroughGateway asks the gateway about a stale payment and runs
// the success path when it actually went through. Returns true when the
// payment is settled and must not be expired. A rejecting or unreachable
// gateway (breaker open included) means "expire it".
func (s *Service) settleThroughGateway(ctx context.Context, p expiredPayment) bool {
	check, err := s.gateway.CheckPaymentStatus(ctx, p.TransactionID)
	if err != nil || check.Status == nil {
		return false
	}

	switch *check.Status {
	case payments.GatewayStatusConfirmed, payments.GatewayStatusAuthorized:
		if err := s.lifecycle.ProcessSuccessfulPayment(ctx, p.TransactionID, p.BookingID, p.EventID); err != nil {
			logger.GetDefault().Error("failed to settle checked payment", "payment_id", p.TransactionID, "error", err)
			return false
		}
		metrics.CleanupItems.WithLabelValues("settled_payment").Inc()
		return true
	}
	return false
}

// sweepEmptyBookings deletes old created bookings that never got a seat.
func (s *Service) sweepEmptyBookings(ctx context.Context) {
	log := logger.GetDefault()

	res := s.db.WithContext(ctx).Exec(`
		DELETE FROM bookings b
		WHERE b.status = 'created'
		  AND b.created_at < ?
		  AND NOT EXISTS (SELECT 1 FROM seats s WHERE s.booking_id = b.id)`,
		time.Now().UTC().Add(-s.cfg.EmptyBookingAge))
	if res.Error != nil {
		log.Error("failed to delete empty bookings", "error", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Info("empty bookings deleted", "count", res.RowsAffected)
		metrics.CleanupItems.WithLabelValues("empty_booking").Add(float64(res.RowsAffected))
	}
}

// staleBooking is a created booking holding seats with no payment row.
type staleBooking struct {
	ID      int64
	EventID int64
}

// sweepStaleBookings frees bookings that reserved seats but never
// started a payment.
func (s *Service) sweepStaleBookings(ctx context.Context) {
	log := logger.GetDefault()

	var stale []staleBooking
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT b.id, b.event_id
		FROM bookings b
		JOIN seats s ON s.booking_id = b.id
		LEFT JOIN payment_transactions pt ON pt.booking_id = b.id
		WHERE b.status = 'created'
		  AND b.created_at < ?
		  AND s.status = ?
		  AND pt.id IS NULL`,
		time.Now().UTC().Add(-s.cfg.StaleBookingAge), seats.StatusReserved).
		Scan(&stale).Error
	if err != nil {
		log.Error("failed to list stale bookings", "error", err)
		return
	}

	for _, b := range stale {
		if err := s.cleanupStaleBooking(ctx, b); err != nil {
			log.Error("failed to cleanup stale booking", "booking_id", b.ID, "error", err)
			continue
		}
		metrics.CleanupItems.WithLabelValues("stale_booking").Inc()
	}
}

func (s *Service) cleanupStaleBooking(ctx context.Context, b staleBooking) error {
	var freed []int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
			UPDATE seats SET status = ?, booking_id = NULL
			WHERE booking_id = ? AND status = ?
			RETURNING id`, seats.StatusFree, b.ID, seats.StatusReserved).
			Scan(&freed).Error; err != nil {
			return fmt.Errorf("failed to free seats: %w", err)
		}
		if err := tx.Exec(`DELETE FROM bookings WHERE id = ?`, b.ID).Error; err != nil {
			return fmt.Errorf("failed to delete booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.locks.ReleaseMany(ctx, freed); err != nil {
		logger.GetDefault().Warn("failed to clear seat locks", "booking_id", b.ID, "error", err)
	}
	logger.GetDefault().Info("stale booking cleaned up", "booking_id", b.ID, "seats_freed", len(freed))
	return nil
}

// sweepOrphanedLocks deletes seat lock keys whose seat is not RESERVED
// or SOLD in the database. TTL would get them eventually; the sweep just
// shortens the window.
func (s *Service) sweepOrphanedLocks(ctx context.Context) {
	log := logger.GetDefault()

	keys, err := s.locks.ScanLockKeys(ctx)
	if err != nil {
		log.Error("failed to scan seat locks", "error", err)
		return
	}
	if len(keys) == 0 {
		return
	}

	var orphans []string
	for _, key := range keys {
		seatID, ok := seatIDFromKey(key)
		if !ok {
			continue
		}
		held, err := s.seatRepo.SeatHoldsLock(ctx, seatID)
		if err != nil {
			log.Error("failed to verify seat lock", "key", key, "error", err)
			continue
		}
		if !held {
			orphans = append(orphans, key)
		}
	}
	if len(orphans) == 0 {
		return
	}

	if err := s.locks.DeleteKeys(ctx, orphans); err != nil {
		log.Error("failed to delete orphaned locks", "error", err)
		return
	}
	log.Info("orphaned seat locks deleted", "count", len(orphans))
	metrics.CleanupItems.WithLabelValues("orphaned_lock").Add(float64(len(orphans)))
}

// Stats counts the records a sweep would touch, for monitoring.
type Stats struct {
	ExpiredPayments int64 `json:"expired_payments"`
	EmptyBookings   int64 `json:"empty_bookings"`
	StaleBookings   int64 `json:"stale_bookings"`
	SeatLocks       int64 `json:"seat_locks"`
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats

	err := s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM payment_transactions
		WHERE status = ? AND created_at < ?`,
		payments.TxPending, time.Now().UTC().Add(-s.cfg.PaymentExpiry)).
		Scan(&stats.ExpiredPayments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count expired payments: %w", err)
	}

	err = s.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM bookings b
		WHERE b.status = 'created'
		  AND b.created_at < ?
		  AND NOT EXISTS (SELECT 1 FROM seats s WHERE s.booking_id = b.id)`,
		time.Now().UTC().Add(-s.cfg.EmptyBookingAge)).
		Scan(&stats.EmptyBookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count empty bookings: %w", err)
	}

	err = s.db.WithContext(ctx).Raw(`
		SELECT COUNT(DISTINCT b.id) FROM bookings b
		JOIN seats s ON s.booking_id = b.id
		LEFT JOIN payment_transactions pt ON pt.booking_id = b.id
		WHERE b.status = 'created'
		  AND b.created_at < ?
		  AND s.status = ?
		  AND pt.id IS NULL`,
		time.Now().UTC().Add(-s.cfg.StaleBookingAge), seats.StatusReserved).
		Scan(&stats.StaleBookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count stale bookings: %w", err)
	}

	keys, err := s.locks.ScanLockKeys(ctx)
	if err != nil {
		return nil, err
	}
	stats.SeatLocks = int64(len(keys))

	return &stats, nil
}

// seatIDFromKey extracts the seat id from seat:{id} or
// seat:{id}:reserved.
func seatIDFromKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "seat:")
	if !ok {
		return 0, false
	}
	if idx := strings.IndexByte(rest, ':'); idx >= 0 {
		rest = rest[:idx]
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
