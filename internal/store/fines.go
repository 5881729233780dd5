package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library-service/internal/models"

	"github.com/pkg/errors"
)

// GetFineByID retrieves a fine by ID
func (s *Store) GetFineByID(ctx context.Context, id int64) (*models.Fine, error) {
	var f models.Fine
	err := s.db.GetContext(ctx, &f, "SELECT * FROM fines WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "fine %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFines retrieves fines, optionally filtered by borrower and/or status
func (s *Store) GetFines(ctx context.Context, userID int64, status string) ([]models.Fine, error) {
	query := "SELECT * FROM fines"
	var conditions []string
	var args []interface{}

	if userID != 0 {
		args = append(args, userID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if status != "" {
		args = append(args, status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY created_at DESC"

	var fines []models.Fine
	err := s.db.SelectContext(ctx, &fines, query, args...)
	return fines, err
}

// PayFineTx settles a pending fine. The row is locked so the pending check
// and the update are atomic; paid and waived are terminal.
func (s *Store) PayFineTx(ctx context.Context, fineID int64, method string, paidAt time.Time) (*models.Fine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var f models.Fine
	err = tx.GetContext(ctx, &f, "SELECT * FROM fines WHERE id = $1 FOR UPDATE", fineID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "fine %d", fineID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock fine")
	}

	if f.Status != models.FineStatusPending {
		return nil, errors.Wrapf(models.ErrInvalidState, "fine %d is already %s", fineID, f.Status)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE fines SET status = 'paid', paid_date = $1, payment_method = $2 WHERE id = $3",
		paidAt, method, fineID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update fine")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	f.Status = models.FineStatusPaid
	f.PaidDate = sql.NullTime{Time: paidAt, Valid: true}
	f.PaymentMethod = sql.NullString{String: method, Valid: true}
	return &f, nil
}

// WaiveFineTx waives a pending fine, with the same terminal-state guard as pay
func (s *Store) WaiveFineTx(ctx context.Context, fineID int64) (*models.Fine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var f models.Fine
	err = tx.GetContext(ctx, &f, "SELECT * FROM fines WHERE id = $1 FOR UPDATE", fineID)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "fine %d", fineID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to lock fine")
	}

	if f.Status != models.FineStatusPending {
		return nil, errors.Wrapf(models.ErrInvalidState, "fine %d is already %s", fineID, f.Status)
	}

	_, err = tx.ExecContext(ctx, "UPDATE fines SET status = 'waived' WHERE id = $1", fineID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update fine")
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	f.Status = models.FineStatusWaived
	return &f, nil
}

// TotalPending sums pending fine amounts, for one borrower when userID is
// non-zero or across all borrowers otherwise. Returns 0 when there are none.
func (s *Store) TotalPending(ctx context.Context, userID int64) (float64, error) {
	var total float64
	var err error
	if userID != 0 {
		err = s.db.GetContext(ctx, &total,
			"SELECT COALESCE(SUM(amount), 0) FROM fines WHERE user_id = $1 AND status = 'pending'", userID)
	} else {
		err = s.db.GetContext(ctx, &total,
			"SELECT COALESCE(SUM(amount), 0) FROM fines WHERE status = 'pending'")
	}
	return total, err
}
