package service

import (
	"context"
	"time"

	"library-service/internal/broker"
	"library-service/internal/fine"
	"library-service/internal/models"
	"library-service/internal/redisclient"
	"library-service/internal/store"
	"library-service/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CirculationService orchestrates book issuance, returns, and overdue
// detection against the catalog store, the fine policy, and the fine ledger
type CirculationService struct {
	store           *store.Store
	redis           *redisclient.Client
	eventPublisher  *broker.EventPublisher
	policy          fine.Policy
	maxBooksPerUser int
	defaultLoanDays int
	logger          *zap.Logger
}

// NewCirculationService creates a new circulation service
func NewCirculationService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	policy fine.Policy,
	maxBooksPerUser int,
	defaultLoanDays int,
) *CirculationService {
	return &CirculationService{
		store:           store,
		redis:           redis,
		eventPublisher:  eventPublisher,
		policy:          policy,
		maxBooksPerUser: maxBooksPerUser,
		defaultLoanDays: defaultLoanDays,
		logger:          util.GetLogger(),
	}
}

// IssueBookRequest represents a request to issue a book
type IssueBookRequest struct {
	BookID         int64  `json:"book_id" binding:"required"`
	UserID         int64  `json:"user_id" binding:"required"`
	LibrarianID    int64  `json:"librarian_id" binding:"required"`
	LoanDays       int    `json:"loan_days,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// IssueBookResponse represents the response after issuing a book
type IssueBookResponse struct {
	TransactionID int64     `json:"transaction_id"`
	DueDate       time.Time `json:"due_date"`
	Status        string    `json:"status"`
}

// IssueBook issues one copy of a book to a borrower. The borrower loan-limit
// check, the availability check, and the copy decrement are atomic; on any
// failure nothing is written.
func (s *CirculationService) IssueBook(ctx context.Context, req *IssueBookRequest) (*IssueBookResponse, error) {
	ctx, span := util.StartSpan(ctx, "CirculationService.IssueBook")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IssueLatency.Observe(time.Since(start).Seconds())
	}()

	if req.LoanDays < 0 {
		return nil, errors.Wrap(models.ErrValidation, "loan_days must not be negative")
	}

	if req.IdempotencyKey != "" {
		if txnID, ok, err := s.redis.GetIdempotentResult(ctx, req.IdempotencyKey); err == nil && ok {
			s.logger.Info("Duplicate issue request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("transaction_id", txnID))
			txn, err := s.store.GetTransactionByID(ctx, txnID)
			if err != nil {
				return nil, err
			}
			return &IssueBookResponse{
				TransactionID: txn.ID,
				DueDate:       txn.DueDate,
				Status:        txn.Status,
			}, nil
		}
	}

	loanDays := req.LoanDays
	if loanDays == 0 {
		loanDays = s.defaultLoanDays
	}

	issueDate := time.Now()
	dueDate := issueDate.AddDate(0, 0, loanDays)

	txn, err := s.store.IssueBookTx(ctx, req.BookID, req.UserID, req.LibrarianID, issueDate, dueDate, s.maxBooksPerUser)
	if err != nil {
		util.IssueFailedTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	util.BooksIssuedTotal.Inc()
	s.logger.Info("Book issued",
		zap.Int64("transaction_id", txn.ID),
		zap.Int64("book_id", txn.BookID),
		zap.Int64("user_id", txn.UserID),
		zap.Time("due_date", txn.DueDate))

	if _, err := s.redis.AdjustAvailability(ctx, txn.BookID, -1); err != nil {
		s.logger.Warn("Failed to adjust availability cache",
			zap.Int64("book_id", txn.BookID), zap.Error(err))
	}

	if req.IdempotencyKey != "" {
		if err := s.redis.SetIdempotentResult(ctx, req.IdempotencyKey, txn.ID, 24*time.Hour); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.Error(err))
		}
	}

	event := &models.BookIssuedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookIssued,
			Timestamp: time.Now(),
		},
		TransactionID: txn.ID,
		BookID:        txn.BookID,
		UserID:        txn.UserID,
		DueDate:       txn.DueDate,
	}
	if err := s.eventPublisher.PublishBookIssued(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookIssued event", zap.Error(err))
	}

	return &IssueBookResponse{
		TransactionID: txn.ID,
		DueDate:       txn.DueDate,
		Status:        txn.Status,
	}, nil
}

// ReturnBookResponse represents the result of a return
type ReturnBookResponse struct {
	Message     string              `json:"message"`
	Transaction *models.Transaction `json:"transaction"`
	Fine        *models.Fine        `json:"fine,omitempty"`
}

// ReturnBook returns a loaned copy, frees it in the catalog, and creates a
// pending fine when the return is past the due date. The whole sequence is
// atomic; a second return of the same transaction fails with no extra fine.
func (s *CirculationService) ReturnBook(ctx context.Context, transactionID, librarianID int64) (*ReturnBookResponse, error) {
	ctx, span := util.StartSpan(ctx, "CirculationService.ReturnBook")
	defer span.End()

	start := time.Now()
	defer func() {
		util.ReturnLatency.Observe(time.Since(start).Seconds())
	}()

	txn, fineRow, err := s.store.ReturnBookTx(ctx, transactionID, time.Now(), s.policy)
	if err != nil {
		util.ReturnFailedTotal.WithLabelValues(errorReason(err)).Inc()
		return nil, err
	}

	util.BooksReturnedTotal.Inc()
	s.logger.Info("Book returned",
		zap.Int64("transaction_id", txn.ID),
		zap.Int64("book_id", txn.BookID),
		zap.Int64("librarian_id", librarianID),
		zap.Bool("fined", fineRow != nil))

	if _, err := s.redis.AdjustAvailability(ctx, txn.BookID, 1); err != nil {
		s.logger.Warn("Failed to adjust availability cache",
			zap.Int64("book_id", txn.BookID), zap.Error(err))
	}

	returnedEvent := &models.BookReturnedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeBookReturned,
			Timestamp: time.Now(),
		},
		TransactionID: txn.ID,
		BookID:        txn.BookID,
		UserID:        txn.UserID,
		Overdue:       fineRow != nil,
	}
	if err := s.eventPublisher.PublishBookReturned(ctx, returnedEvent); err != nil {
		s.logger.Error("Failed to publish BookReturned event", zap.Error(err))
	}

	message := "Book returned successfully"
	if fineRow != nil {
		util.FinesAssessedTotal.Inc()
		util.FineAmountAssessed.Add(fineRow.Amount)
		message = formatFineMessage(fineRow.Amount)

		if err := s.redis.InvalidatePendingTotal(ctx, fineRow.UserID); err != nil {
			s.logger.Warn("Failed to invalidate pending total cache", zap.Error(err))
		}

		fineEvent := &models.FineAssessedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeFineAssessed,
				Timestamp: time.Now(),
			},
			FineID:        fineRow.ID,
			TransactionID: txn.ID,
			UserID:        fineRow.UserID,
			Amount:        fineRow.Amount,
			DaysOverdue:   fineRow.DaysOverdue,
		}
		if err := s.eventPublisher.PublishFineAssessed(ctx, fineEvent); err != nil {
			s.logger.Error("Failed to publish FineAssessed event", zap.Error(err))
		}
	}

	return &ReturnBookResponse{
		Message:     message,
		Transaction: txn,
		Fine:        fineRow,
	}, nil
}

// RefreshOverdueStatuses flips open loans past their due date to overdue.
// Lazy and idempotent; the sweep worker also calls this periodically but
// correctness never depends on it.
func (s *CirculationService) RefreshOverdueStatuses(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "CirculationService.RefreshOverdueStatuses")
	defer span.End()

	start := time.Now()
	defer func() {
		util.OverdueSweepLatency.Observe(time.Since(start).Seconds())
	}()

	updated, err := s.store.RefreshOverdueStatuses(ctx, today())
	if err != nil {
		return 0, err
	}

	if updated > 0 {
		util.OverdueTransitionsTotal.Add(float64(updated))
		s.logger.Info("Overdue sweep completed", zap.Int64("updated", updated))

		event := &models.OverdueSweptEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOverdueSwept,
				Timestamp: time.Now(),
			},
			Updated: updated,
		}
		if err := s.eventPublisher.PublishOverdueSwept(ctx, event); err != nil {
			s.logger.Error("Failed to publish OverdueSwept event", zap.Error(err))
		}
	}

	return updated, nil
}

// GetOverdue lists overdue transactions. It runs the refresh first, so the
// result is always consistent with a fresh evaluation and callers need not
// remember to sweep.
func (s *CirculationService) GetOverdue(ctx context.Context) ([]models.TransactionDetail, error) {
	if _, err := s.RefreshOverdueStatuses(ctx); err != nil {
		return nil, err
	}
	return s.store.GetOverdueTransactions(ctx)
}

// GetTransaction retrieves a transaction by ID
func (s *CirculationService) GetTransaction(ctx context.Context, transactionID int64) (*models.Transaction, error) {
	return s.store.GetTransactionByID(ctx, transactionID)
}

// GetTransactions lists transactions, optionally filtered by borrower and status
func (s *CirculationService) GetTransactions(ctx context.Context, userID int64, status string) ([]models.TransactionDetail, error) {
	if err := validateTransactionStatus(status); err != nil {
		return nil, err
	}
	return s.store.GetTransactions(ctx, userID, status)
}

// FinePreview is an informational fine computation for an open loan
type FinePreview struct {
	TransactionID int64         `json:"transaction_id"`
	Amount        float64       `json:"amount"`
	DaysOverdue   int           `json:"days_overdue"`
	Severity      fine.Severity `json:"severity"`
}

// PreviewFine reports what the fine would be if the loan were returned today.
// Purely informational; nothing is written.
func (s *CirculationService) PreviewFine(ctx context.Context, transactionID int64) (*FinePreview, error) {
	txn, err := s.store.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.Status == models.TransactionStatusReturned {
		return nil, errors.Wrapf(models.ErrInvalidState, "transaction %d is already returned", transactionID)
	}

	amount, daysOverdue := s.policy.Compute(txn.DueDate, time.Now())
	return &FinePreview{
		TransactionID: txn.ID,
		Amount:        amount,
		DaysOverdue:   daysOverdue,
		Severity:      fine.Classify(daysOverdue),
	}, nil
}

// GetBook retrieves a book by ID
func (s *CirculationService) GetBook(ctx context.Context, bookID int64) (*models.Book, error) {
	return s.store.GetBookByID(ctx, bookID)
}

// ListBooks lists catalog books, optionally filtered by category and availability
func (s *CirculationService) ListBooks(ctx context.Context, category string, availableOnly bool) ([]models.Book, error) {
	return s.store.GetBooks(ctx, category, availableOnly)
}

// CheckAvailability reports whether a copy is free to issue. The Redis cache
// is the fast path; a miss falls back to the database. Issue itself never
// trusts this answer, the availability check inside the issue transaction is
// authoritative.
func (s *CirculationService) CheckAvailability(ctx context.Context, bookID int64) (bool, error) {
	if available, _, err := s.redis.GetAvailability(ctx, bookID); err == nil {
		return available > 0, nil
	}

	book, err := s.store.GetBookByID(ctx, bookID)
	if err != nil {
		return false, err
	}
	return book.IsAvailable(), nil
}

// SyncAvailabilityToRedis seeds the availability cache from the catalog
func (s *CirculationService) SyncAvailabilityToRedis(ctx context.Context) error {
	books, err := s.store.GetBooks(ctx, "", false)
	if err != nil {
		return errors.Wrap(err, "failed to list books")
	}

	for i := range books {
		b := &books[i]
		if err := s.redis.InitAvailability(ctx, b.ID, b.AvailableCopies, b.TotalCopies); err != nil {
			s.logger.Error("Failed to seed availability cache",
				zap.Int64("book_id", b.ID), zap.Error(err))
		}
	}

	s.logger.Info("Availability cache synced", zap.Int("count", len(books)))
	return nil
}

func validateTransactionStatus(status string) error {
	switch status {
	case "", models.TransactionStatusIssued, models.TransactionStatusReturned, models.TransactionStatusOverdue:
		return nil
	default:
		return errors.Wrapf(models.ErrValidation, "unknown transaction status %q", status)
	}
}

// today truncates the current time to a calendar date; overdue means the due
// date has passed, not that the due day is in progress
func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
