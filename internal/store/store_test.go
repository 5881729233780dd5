package store

import (
	"context"
	"testing"

	"library-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStoreWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func TestGetBookByID(t *testing.T) {
	s, mock := newTestStore(t)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "isbn", "title", "author", "category", "total_copies", "available_copies"}).
		AddRow(1, "978-0134190440", "The Go Programming Language", "Donovan & Kernighan", "Programming", 3, 2)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	book, err := s.GetBookByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "978-0134190440", book.ISBN)
	assert.Equal(t, 2, book.AvailableCopies)
	assert.True(t, book.IsAvailable())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBookByIDNotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE id").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetBookByID(context.Background(), 99)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestGetBooksFilters(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"id", "title", "category", "total_copies", "available_copies"}).
		AddRow(1, "Dune", "Fiction", 2, 1)

	mock.ExpectQuery("SELECT (.+) FROM books WHERE category = (.+) AND available_copies > 0").
		WithArgs("Fiction").
		WillReturnRows(rows)

	books, err := s.GetBooks(context.Background(), "Fiction", true)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetInventoryByCategory(t *testing.T) {
	s, mock := newTestStore(t)

	rows := sqlmock.NewRows([]string{"category", "titles", "total_copies", "available_copies"}).
		AddRow("Fiction", 10, 25, 18).
		AddRow("Science", 4, 9, 9)

	mock.ExpectQuery("SELECT category, COUNT").
		WillReturnRows(rows)

	inventory, err := s.GetInventoryByCategory(context.Background())
	require.NoError(t, err)
	require.Len(t, inventory, 2)
	assert.Equal(t, "Fiction", inventory[0].Category)
	assert.Equal(t, 18, inventory[0].AvailableCopies)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkEventProcessed(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs("evt-1", models.EventTypeFineAssessed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.MarkEventProcessed(context.Background(), "evt-1", models.EventTypeFineAssessed)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
