package payments

import (
	"context"
	"testing"
	"time"

	"billetter/internal/seats"
	"billetter/pkg/cache"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingNotifier captures published events.
type recordingNotifier struct {
	confirmed []string
	released  []string
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, bookingID, eventID int64, paymentID string) {
	n.confirmed = append(n.confirmed, paymentID)
}

func (n *recordingNotifier) BookingReleased(ctx context.Context, bookingID, eventID int64, paymentID, reason string) {
	n.released = append(n.released, paymentID+":"+reason)
}

// nullSeatLoader backs the facade; lifecycle tests never read seats.
type nullSeatLoader struct{ seats.Repository }

func (nullSeatLoader) GetSeatsByEventID(ctx context.Context, eventID int64) ([]seats.Seat, error) {
	return nil, nil
}

func newLifecycleHarness(t *testing.T) (*Lifecycle, sqlmock.Sqlmock, *miniredis.Miniredis, *recordingNotifier) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	locks := seats.NewLockStore(client, 5*time.Minute)
	facade := seats.NewCacheFacade(nullSeatLoader{}, cache.NewService(client), 24*time.Hour)
	notifier := &recordingNotifier{}
	return NewLifecycle(gormDB, locks, facade, notifier), mock, mr, notifier
}

func TestProcessSuccessfulPayment(t *testing.T) {
	lifecycle, mock, mr, notifier := newLifecycleHarness(t)

	mr.Set("seat:42:reserved", "1")
	mr.Set("seats:7", "[]")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions SET status`).
		WithArgs("completed", "pay-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings SET status = 'paid'`).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE seats SET status`).
		WithArgs("SOLD", int64(10), "RESERVED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
	mock.ExpectCommit()

	require.NoError(t, lifecycle.ProcessSuccessfulPayment(context.Background(), "pay-1", 10, 7))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.False(t, mr.Exists("seat:42:reserved"), "sold seat lock removed")
	assert.False(t, mr.Exists("seats:7"), "event cache invalidated")
	assert.Equal(t, []string{"pay-1"}, notifier.confirmed)
}

// Replaying a resolution is a no-op: the conditional guard on the
// transaction status stops the cascade.
func TestProcessSuccessfulPaymentIdempotent(t *testing.T) {
	lifecycle, mock, _, notifier := newLifecycleHarness(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions SET status`).
		WithArgs("completed", "pay-1", "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, lifecycle.ProcessSuccessfulPayment(context.Background(), "pay-1", 10, 7))
	assert.NoError(t, mock.ExpectationsWereMet(), "bookings and seats must not be touched on replay")
	assert.Empty(t, notifier.confirmed)
}

func TestProcessFailedPaymentReleasesEverything(t *testing.T) {
	lifecycle, mock, mr, notifier := newLifecycleHarness(t)

	mr.Set("seat:5:reserved", "1")

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions SET status`).
		WithArgs("failed", "pay-2", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE seats SET status`).
		WithArgs("FREE", int64(11), "RESERVED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec(`DELETE FROM bookings`).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, lifecycle.ProcessFailedPayment(context.Background(), "pay-2", 11, 7))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.False(t, mr.Exists("seat:5:reserved"))
	assert.Equal(t, []string{"pay-2:failed"}, notifier.released)
}

func TestCleanupExpiredPaymentMarksExpired(t *testing.T) {
	lifecycle, mock, _, notifier := newLifecycleHarness(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE payment_transactions SET status`).
		WithArgs("expired", "pay-3", "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE seats SET status`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectExec(`DELETE FROM bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, lifecycle.CleanupExpiredPayment(context.Background(), "pay-3", 12, 7))
	assert.Equal(t, []string{"pay-3:expired"}, notifier.released)
}

func TestResolveBooking(t *testing.T) {
	lifecycle, mock, _, _ := newLifecycleHarness(t)

	mock.ExpectQuery(`SELECT b.id AS booking_id`).
		WithArgs("pay-1").
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "event_id"}).AddRow(int64(10), int64(7)))

	bookingID, eventID, err := lifecycle.ResolveBooking(context.Background(), "pay-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), bookingID)
	assert.Equal(t, int64(7), eventID)
}

func TestResolveBookingUnknownPayment(t *testing.T) {
	lifecycle, mock, _, _ := newLifecycleHarness(t)

	mock.ExpectQuery(`SELECT b.id AS booking_id`).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "event_id"}))

	_, _, err := lifecycle.ResolveBooking(context.Background(), "pay-x")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
