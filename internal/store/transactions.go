package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library-service/internal/fine"
	"library-service/internal/models"

	"github.com/pkg/errors"
)

// IssueBookTx issues one copy of a book to a borrower. The loan-limit check,
// the availability check, and the copy decrement run in a single database
// transaction with a row lock on the book, so two concurrent issuances of the
// last copy cannot both succeed.
func (s *Store) IssueBookTx(ctx context.Context, bookID, userID, librarianID int64, issueDate, dueDate time.Time, maxBooks int) (*models.Transaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var open int
	err = tx.GetContext(ctx, &open,
		"SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND status = 'issued'", userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count open loans")
	}
	if open >= maxBooks {
		return nil, errors.Wrapf(models.ErrLimitExceeded, "user %d has %d open loans", userID, open)
	}

	var available int
	err = tx.GetContext(ctx, &available,
		"SELECT available_copies FROM books WHERE id = $1 FOR UPDATE", bookID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrUnavailable, "book %d", bookID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock book")
	}
	if available <= 0 {
		return nil, errors.Wrapf(models.ErrUnavailable, "book %d", bookID)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE books SET available_copies = available_copies - 1, updated_at = NOW() WHERE id = $1",
		bookID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrement available copies")
	}

	var txn models.Transaction
	err = tx.GetContext(ctx, &txn, `
		INSERT INTO transactions (book_id, user_id, librarian_id, issue_date, due_date, status)
		VALUES ($1, $2, $3, $4, $5, 'issued')
		RETURNING id, book_id, user_id, librarian_id, issue_date, due_date, status, created_at`,
		bookID, userID, librarianID, issueDate, dueDate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert transaction")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ReturnBookTx returns a loaned copy. The status check, status flip, copy
// increment, and fine creation (when the return is late) commit together or
// not at all. The transaction row is locked so a double return cannot create
// a second fine.
func (s *Store) ReturnBookTx(ctx context.Context, transactionID int64, returnedAt time.Time, policy fine.Policy) (*models.Transaction, *models.Fine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var txn models.Transaction
	err = tx.GetContext(ctx, &txn,
		"SELECT * FROM transactions WHERE id = $1 FOR UPDATE", transactionID)
	if err == sql.ErrNoRows {
		return nil, nil, errors.Wrapf(models.ErrNotFound, "transaction %d", transactionID)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to lock transaction")
	}

	// Overdue does not block a return; only issued/overdue rows are open loans
	if txn.Status != models.TransactionStatusIssued && txn.Status != models.TransactionStatusOverdue {
		return nil, nil, errors.Wrapf(models.ErrInvalidState, "transaction %d is not currently issued", transactionID)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE transactions SET status = 'returned', return_date = $1 WHERE id = $2",
		returnedAt, transactionID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to update transaction")
	}

	// Copies were decremented at issue time, so this can never exceed total;
	// LEAST keeps the invariant even against manual copy-count edits.
	_, err = tx.ExecContext(ctx,
		"UPDATE books SET available_copies = LEAST(available_copies + 1, total_copies), updated_at = NOW() WHERE id = $1",
		txn.BookID)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to increment available copies")
	}

	var fineRow *models.Fine
	amount, daysOverdue := policy.Compute(txn.DueDate, returnedAt)
	if daysOverdue > 0 {
		fineRow = &models.Fine{}
		err = tx.GetContext(ctx, fineRow, `
			INSERT INTO fines (transaction_id, user_id, amount, days_overdue, status)
			VALUES ($1, $2, $3, $4, 'pending')
			RETURNING id, transaction_id, user_id, amount, days_overdue, status, created_at`,
			transactionID, txn.UserID, amount, daysOverdue)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to insert fine")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	txn.Status = models.TransactionStatusReturned
	txn.ReturnDate = sql.NullTime{Time: returnedAt, Valid: true}
	return &txn, fineRow, nil
}

// RefreshOverdueStatuses flips open loans past their due date to overdue.
// The predicate re-checks status = 'issued' at write time, so a concurrent
// return wins over the sweep. Idempotent.
func (s *Store) RefreshOverdueStatuses(ctx context.Context, today time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET status = 'overdue' WHERE status = 'issued' AND due_date < $1",
		today)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetTransactionByID retrieves a transaction by ID
func (s *Store) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.GetContext(ctx, &txn, "SELECT * FROM transactions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "transaction %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetTransactions retrieves transactions joined with book info, optionally
// filtered by borrower and/or status
func (s *Store) GetTransactions(ctx context.Context, userID int64, status string) ([]models.TransactionDetail, error) {
	query := `
		SELECT t.*, b.title, b.author
		FROM transactions t
		JOIN books b ON t.book_id = b.id`
	var conditions []string
	var args []interface{}

	if userID != 0 {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("t.user_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY t.issue_date DESC"

	var txns []models.TransactionDetail
	err := s.db.SelectContext(ctx, &txns, query, args...)
	return txns, err
}

// GetOverdueTransactions retrieves transactions already marked overdue
func (s *Store) GetOverdueTransactions(ctx context.Context) ([]models.TransactionDetail, error) {
	var txns []models.TransactionDetail
	err := s.db.SelectContext(ctx, &txns, `
		SELECT t.*, b.title, b.author
		FROM transactions t
		JOIN books b ON t.book_id = b.id
		WHERE t.status = 'overdue'
		ORDER BY t.due_date`)
	return txns, err
}

// CountTransactionsByStatus counts transactions in a given status
func (s *Store) CountTransactionsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM transactions WHERE status = $1", status)
	return count, err
}
