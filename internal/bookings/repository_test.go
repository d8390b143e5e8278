package bookings

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewRepository(gormDB), mock
}

func TestBelongsToUser(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1 AND user_id = $2)`)).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.BelongsToUser(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxFreesSeatsInOneTransaction(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE seats`).
		WithArgs("FREE", int64(10), "RESERVED").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)).AddRow(int64(6)))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	freed, err := repo.CancelTx(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 6}, freed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTxRollsBackOnFailure(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE seats`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := repo.CancelTx(context.Background(), 10)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListWithSeatsGroupsRows(t *testing.T) {
	repo, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"bid", "eid", "sid"}).
		AddRow(int64(2), int64(7), int64(41)).
		AddRow(int64(2), int64(7), int64(42)).
		AddRow(int64(1), int64(7), nil)
	mock.ExpectQuery(`SELECT b.id AS bid`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	result, err := repo.ListWithSeats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, result, 2)

	assert.Equal(t, int64(2), result[0].ID)
	assert.Len(t, result[0].Seats, 2)

	// A booking with no seats still appears, with an empty list.
	assert.Equal(t, int64(1), result[1].ID)
	assert.Empty(t, result[1].Seats)
}

func TestGetPaymentAggregate(t *testing.T) {
	repo, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"booking_id", "event_title", "total_price", "seat_count", "user_email"}).
		AddRow(int64(10), "Billetter Live", 5000.0, 2, "u@test.local")
	mock.ExpectQuery(`SELECT b.id AS booking_id`).
		WithArgs("RESERVED", int64(10), int64(1)).
		WillReturnRows(rows)

	agg, err := repo.GetPaymentAggregate(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, agg.TotalPrice)
	assert.Equal(t, 2, agg.SeatCount)
	assert.Equal(t, "u@test.local", agg.UserEmail)
}

func TestGetPaymentAggregateEmptyBooking(t *testing.T) {
	repo, mock := newMockDB(t)

	// HAVING COUNT(s.id) > 0 filters the booking out entirely.
	mock.ExpectQuery(`SELECT b.id AS booking_id`).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "event_title", "total_price", "seat_count", "user_email"}))

	_, err := repo.GetPaymentAggregate(context.Background(), 10, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCreatePaymentTxWritesBothRows(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payment_transactions"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreatePaymentTx(context.Background(), 10, "pay-1", "booking-10-1700000000", 5000)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestPayment(t *testing.T) {
	repo, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"status", "transaction_id"}).
		AddRow("pending", "pay-9")
	mock.ExpectQuery(`SELECT pt.status, pt.transaction_id`).
		WithArgs(int64(10), int64(1)).
		WillReturnRows(rows)

	lp, err := repo.GetLatestPayment(context.Background(), 10, 1)
	require.NoError(t, err)
	assert.Equal(t, "pending", lp.Status)
	assert.Equal(t, "pay-9", lp.TransactionID)
}

func TestGetLatestPaymentMissing(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT pt.status, pt.transaction_id`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "transaction_id"}))

	_, err := repo.GetLatestPayment(context.Background(), 10, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
