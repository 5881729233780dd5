package store

import (
	"context"
	"testing"

	"library-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fineRows(id, userID int64, amount float64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(
		[]string{"id", "transaction_id", "user_id", "amount", "days_overdue", "status", "paid_date", "payment_method", "created_at"}).
		AddRow(id, 42, userID, amount, 10, status, nil, nil, day(2024, 1, 11))
}

func TestPayFineTx(t *testing.T) {
	s, mock := newTestStore(t)

	paidAt := day(2024, 1, 20)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusPending))
	mock.ExpectExec("UPDATE fines SET status = 'paid'").
		WithArgs(paidAt, "card", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f, err := s.PayFineTx(context.Background(), 5, "card", paidAt)
	require.NoError(t, err)
	assert.Equal(t, models.FineStatusPaid, f.Status)
	assert.True(t, f.PaidDate.Valid)
	assert.Equal(t, "card", f.PaymentMethod.String)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayFineTxAlreadyPaid(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusPaid))
	mock.ExpectRollback()

	_, err := s.PayFineTx(context.Background(), 5, "cash", day(2024, 1, 21))
	assert.True(t, errors.Is(err, models.ErrInvalidState))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayFineTxWaived(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusWaived))
	mock.ExpectRollback()

	_, err := s.PayFineTx(context.Background(), 5, "cash", day(2024, 1, 21))
	assert.True(t, errors.Is(err, models.ErrInvalidState))
}

func TestPayFineTxNotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.PayFineTx(context.Background(), 99, "cash", day(2024, 1, 21))
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestWaiveFineTx(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusPending))
	mock.ExpectExec("UPDATE fines SET status = 'waived'").
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	f, err := s.WaiveFineTx(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, models.FineStatusWaived, f.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaiveFineTxAlreadyWaived(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM fines WHERE id (.+) FOR UPDATE").
		WithArgs(int64(5)).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusWaived))
	mock.ExpectRollback()

	_, err := s.WaiveFineTx(context.Background(), 5)
	assert.True(t, errors.Is(err, models.ErrInvalidState))
}

func TestTotalPendingForUser(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT COALESCE(.+) FROM fines WHERE user_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(75.5))

	total, err := s.TotalPending(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 75.5, total)
}

func TestTotalPendingEmptyIsZero(t *testing.T) {
	s, mock := newTestStore(t)

	// COALESCE guarantees 0, never NULL, when there are no pending fines
	mock.ExpectQuery("SELECT COALESCE(.+) FROM fines WHERE user_id").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(0))

	total, err := s.TotalPending(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, float64(0), total)
}

func TestTotalPendingAllUsers(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT COALESCE(.+) FROM fines WHERE status = 'pending'").
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(120.0))

	total, err := s.TotalPending(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 120.0, total)
}

func TestGetFinesFilters(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM fines WHERE user_id = (.+) AND status =").
		WithArgs(int64(7), models.FineStatusPending).
		WillReturnRows(fineRows(5, 7, 50, models.FineStatusPending))

	fines, err := s.GetFines(context.Background(), 7, models.FineStatusPending)
	require.NoError(t, err)
	require.Len(t, fines, 1)
	assert.Equal(t, int64(7), fines[0].UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
