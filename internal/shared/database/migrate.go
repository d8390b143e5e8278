package database

import (
	"billetter/internal/bookings"
	"billetter/internal/events"
	"billetter/internal/payments"
	"billetter/internal/seats"
	"billetter/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	// Run auto-migration first
	err := db.AutoMigrate(
		// Users first
		&users.User{},

		// Events and their seat maps
		&events.Event{},
		&seats.Seat{},

		// Bookings and payments
		&bookings.Booking{},
		&payments.PaymentTransaction{},
	)
	if err != nil {
		return err
	}

	return migrateConstraints(db)
}

// migrateConstraints adds indexes the conditional updates lean on and
// normalizes legacy seat statuses left over from earlier datasets.
func migrateConstraints(db *gorm.DB) error {
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_seats_event_status
		ON seats (event_id, status);
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_transactions_pending
		ON payment_transactions (status, created_at);
	`).Error
	if err != nil {
		return err
	}

	// Older datasets carried AVAILABLE; the engine only understands FREE.
	return db.Exec(`
		UPDATE seats SET status = 'FREE' WHERE status = 'AVAILABLE';
	`).Error
}
