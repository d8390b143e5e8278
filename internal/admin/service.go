package admin

import (
	"context"
	"fmt"

	"billetter/internal/seats"
	"billetter/internal/shared/constants"
	"billetter/pkg/cache"
	"billetter/pkg/logger"

	"gorm.io/gorm"
)

// ResetReport summarizes what a reset touched.
type ResetReport struct {
	SeatsReset      int64 `json:"seats_reset"`
	BookingsDeleted int64 `json:"bookings_deleted"`
	PaymentsDeleted int64 `json:"payments_deleted"`
}

// Service performs the test-only hard reset: seats back to FREE, all
// bookings and payment transactions removed, booking id sequence
// restarted, Redis purged. Users and events are preserved. Callers must
// quiesce traffic first; concurrent requests during a reset are
// undefined.
type Service struct {
	db    *gorm.DB
	cache cache.Service
}

func NewService(db *gorm.DB, cacheService cache.Service) *Service {
	return &Service{db: db, cache: cacheService}
}

func (s *Service) Reset(ctx context.Context) (*ResetReport, error) {
	log := logger.GetDefault()
	log.Warn("hard reset started")

	var report ResetReport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE seats
			SET status = ?, booking_id = NULL
			WHERE status IN (?, ?, 'SELECTED')`,
			seats.StatusFree, seats.StatusReserved, seats.StatusSold)
		if res.Error != nil {
			return fmt.Errorf("failed to reset seats: %w", res.Error)
		}
		report.SeatsReset = res.RowsAffected

		res = tx.Exec(`DELETE FROM payment_transactions`)
		if res.Error != nil {
			return fmt.Errorf("failed to delete payments: %w", res.Error)
		}
		report.PaymentsDeleted = res.RowsAffected

		res = tx.Exec(`DELETE FROM bookings`)
		if res.Error != nil {
			return fmt.Errorf("failed to delete bookings: %w", res.Error)
		}
		report.BookingsDeleted = res.RowsAffected

		if err := tx.Exec(`ALTER SEQUENCE bookings_id_seq RESTART WITH 1`).Error; err != nil {
			return fmt.Errorf("failed to restart booking sequence: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Post-commit Redis purge is best-effort; TTLs cover stragglers.
	for _, pattern := range []string{constants.PATTERN_SEAT_LOCKS, constants.PATTERN_SEATS_CACHES, constants.PATTERN_SEARCH_CACHES} {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil {
			log.Warn("failed to purge cache pattern", "pattern", pattern, "error", err)
		}
	}
	if err := s.cache.Delete(ctx, constants.KEY_EVENTS); err != nil {
		log.Warn("failed to purge events cache", "error", err)
	}

	log.Warn("hard reset completed",
		"seats_reset", report.SeatsReset,
		"bookings_deleted", report.BookingsDeleted,
		"payments_deleted", report.PaymentsDeleted)
	return &report, nil
}
