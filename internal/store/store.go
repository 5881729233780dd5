package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"library-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetBookByID retrieves a book by ID
func (s *Store) GetBookByID(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT * FROM books WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "book %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookByISBN retrieves a book by ISBN
func (s *Store) GetBookByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	var book models.Book
	err := s.db.GetContext(ctx, &book, "SELECT * FROM books WHERE isbn = $1", isbn)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "book isbn %s", isbn)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBooks retrieves books, optionally filtered by category and availability
func (s *Store) GetBooks(ctx context.Context, category string, availableOnly bool) ([]models.Book, error) {
	query := "SELECT * FROM books"
	var conditions []string
	var args []interface{}

	if category != "" {
		args = append(args, category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if availableOnly {
		conditions = append(conditions, "available_copies > 0")
	}

	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY title"

	var books []models.Book
	err := s.db.SelectContext(ctx, &books, query, args...)
	return books, err
}

// CategoryInventory is a per-category copy-count aggregate
type CategoryInventory struct {
	Category        string `db:"category" json:"category"`
	Titles          int    `db:"titles" json:"titles"`
	TotalCopies     int    `db:"total_copies" json:"total_copies"`
	AvailableCopies int    `db:"available_copies" json:"available_copies"`
}

// GetInventoryByCategory aggregates catalog copy counts per category
func (s *Store) GetInventoryByCategory(ctx context.Context) ([]CategoryInventory, error) {
	var inventory []CategoryInventory
	err := s.db.SelectContext(ctx, &inventory, `
		SELECT category, COUNT(*) AS titles,
		       SUM(total_copies) AS total_copies,
		       SUM(available_copies) AS available_copies
		FROM books
		GROUP BY category
		ORDER BY category`)
	return inventory, err
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user,
		"SELECT id, full_name, email, role FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(models.ErrNotFound, "user %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RoleCount is the number of users holding a role
type RoleCount struct {
	Role  string `db:"role" json:"role"`
	Count int    `db:"count" json:"count"`
}

// CountUsersByRole counts users grouped by role
func (s *Store) CountUsersByRole(ctx context.Context) ([]RoleCount, error) {
	var counts []RoleCount
	err := s.db.SelectContext(ctx, &counts,
		"SELECT role, COUNT(*) AS count FROM users GROUP BY role ORDER BY role")
	return counts, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
