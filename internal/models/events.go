package models

import "time"

// Event types
const (
	EventTypeBookIssued   = "BOOK_ISSUED"
	EventTypeBookReturned = "BOOK_RETURNED"
	EventTypeFineAssessed = "FINE_ASSESSED"
	EventTypeFinePaid     = "FINE_PAID"
	EventTypeFineWaived   = "FINE_WAIVED"
	EventTypeOverdueSwept = "OVERDUE_SWEPT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookIssuedEvent published when a copy is issued to a borrower
type BookIssuedEvent struct {
	BaseEvent
	TransactionID int64     `json:"transaction_id"`
	BookID        int64     `json:"book_id"`
	UserID        int64     `json:"user_id"`
	DueDate       time.Time `json:"due_date"`
}

// BookReturnedEvent published when a copy is returned
type BookReturnedEvent struct {
	BaseEvent
	TransactionID int64 `json:"transaction_id"`
	BookID        int64 `json:"book_id"`
	UserID        int64 `json:"user_id"`
	Overdue       bool  `json:"overdue"`
}

// FineAssessedEvent published when a late return creates a fine
type FineAssessedEvent struct {
	BaseEvent
	FineID        int64   `json:"fine_id"`
	TransactionID int64   `json:"transaction_id"`
	UserID        int64   `json:"user_id"`
	Amount        float64 `json:"amount"`
	DaysOverdue   int     `json:"days_overdue"`
}

// FinePaidEvent published when a fine is settled
type FinePaidEvent struct {
	BaseEvent
	FineID        int64   `json:"fine_id"`
	UserID        int64   `json:"user_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// FineWaivedEvent published when a fine is waived
type FineWaivedEvent struct {
	BaseEvent
	FineID int64   `json:"fine_id"`
	UserID int64   `json:"user_id"`
	Amount float64 `json:"amount"`
}

// OverdueSweptEvent published after an overdue status sweep
type OverdueSweptEvent struct {
	BaseEvent
	Updated int64 `json:"updated"`
}
