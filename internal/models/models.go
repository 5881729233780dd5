package models

import (
	"database/sql"
	"time"
)

// Book represents a catalog title with copy counts
type Book struct {
	ID              int64     `db:"id" json:"id"`
	ISBN            string    `db:"isbn" json:"isbn"`
	Title           string    `db:"title" json:"title"`
	Author          string    `db:"author" json:"author"`
	Category        string    `db:"category" json:"category"`
	TotalCopies     int       `db:"total_copies" json:"total_copies"`
	AvailableCopies int       `db:"available_copies" json:"available_copies"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// IsAvailable reports whether at least one copy is free to issue
func (b *Book) IsAvailable() bool {
	return b.AvailableCopies > 0
}

// User represents a library member or staff account.
// Read-only here; account management lives outside this service.
type User struct {
	ID       int64  `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
	Role     string `db:"role" json:"role"`
}

// Transaction represents a loan of one copy of a book
type Transaction struct {
	ID          int64        `db:"id" json:"id"`
	BookID      int64        `db:"book_id" json:"book_id"`
	UserID      int64        `db:"user_id" json:"user_id"`
	LibrarianID int64        `db:"librarian_id" json:"librarian_id"`
	IssueDate   time.Time    `db:"issue_date" json:"issue_date"`
	DueDate     time.Time    `db:"due_date" json:"due_date"`
	ReturnDate  sql.NullTime `db:"return_date" json:"return_date,omitempty"`
	Status      string       `db:"status" json:"status"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// TransactionDetail is a transaction joined with book info for listings
type TransactionDetail struct {
	Transaction
	Title  string `db:"title" json:"title"`
	Author string `db:"author" json:"author"`
}

// Fine represents a monetary penalty for a late return, tied 1:1 to a transaction
type Fine struct {
	ID            int64          `db:"id" json:"id"`
	TransactionID int64          `db:"transaction_id" json:"transaction_id"`
	UserID        int64          `db:"user_id" json:"user_id"`
	Amount        float64        `db:"amount" json:"amount"`
	DaysOverdue   int            `db:"days_overdue" json:"days_overdue"`
	Status        string         `db:"status" json:"status"`
	PaidDate      sql.NullTime   `db:"paid_date" json:"paid_date,omitempty"`
	PaymentMethod sql.NullString `db:"payment_method" json:"payment_method,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Transaction statuses
const (
	TransactionStatusIssued   = "issued"
	TransactionStatusReturned = "returned"
	TransactionStatusOverdue  = "overdue"
)

// Fine statuses
const (
	FineStatusPending = "pending"
	FineStatusPaid    = "paid"
	FineStatusWaived  = "waived"
)

// User roles
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleStudent   = "student"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
