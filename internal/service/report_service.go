package service

import (
	"context"

	"library-service/internal/models"
	"library-service/internal/store"
	"library-service/internal/util"

	"go.uber.org/zap"
)

// ReportService builds read-only reports over catalog and ledger state
type ReportService struct {
	store       *store.Store
	circulation *CirculationService
	fines       *FineService
	logger      *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store *store.Store, circulation *CirculationService, fines *FineService) *ReportService {
	return &ReportService{
		store:       store,
		circulation: circulation,
		fines:       fines,
		logger:      util.GetLogger(),
	}
}

// DashboardStats summarizes the library's current state
type DashboardStats struct {
	TotalBooks     int               `json:"total_books"`
	AvailableBooks int               `json:"available_books"`
	IssuedBooks    int               `json:"issued_books"`
	OverdueBooks   int               `json:"overdue_books"`
	PendingFines   float64           `json:"pending_fines"`
	UsersByRole    []store.RoleCount `json:"users_by_role"`
}

// Dashboard collects headline stats and the most recent transactions.
// Overdue counts go through the circulation engine so they reflect a fresh
// sweep.
func (s *ReportService) Dashboard(ctx context.Context) (*DashboardStats, []models.TransactionDetail, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Dashboard")
	defer span.End()

	books, err := s.store.GetBooks(ctx, "", false)
	if err != nil {
		return nil, nil, err
	}

	available := 0
	for i := range books {
		if books[i].IsAvailable() {
			available++
		}
	}

	issued, err := s.store.CountTransactionsByStatus(ctx, models.TransactionStatusIssued)
	if err != nil {
		return nil, nil, err
	}

	overdue, err := s.circulation.GetOverdue(ctx)
	if err != nil {
		return nil, nil, err
	}

	pending, err := s.fines.TotalPending(ctx, 0)
	if err != nil {
		return nil, nil, err
	}

	roles, err := s.store.CountUsersByRole(ctx)
	if err != nil {
		return nil, nil, err
	}

	recent, err := s.store.GetTransactions(ctx, 0, "")
	if err != nil {
		return nil, nil, err
	}
	if len(recent) > 10 {
		recent = recent[:10]
	}

	stats := &DashboardStats{
		TotalBooks:     len(books),
		AvailableBooks: available,
		IssuedBooks:    issued,
		OverdueBooks:   len(overdue),
		PendingFines:   pending,
		UsersByRole:    roles,
	}
	return stats, recent, nil
}

// InventoryReport aggregates catalog copy counts per category
func (s *ReportService) InventoryReport(ctx context.Context) ([]store.CategoryInventory, error) {
	return s.store.GetInventoryByCategory(ctx)
}

// CirculationReport counts transactions by lifecycle status
type CirculationReport struct {
	Issued   int `json:"books_issued"`
	Returned int `json:"books_returned"`
	Overdue  int `json:"books_overdue"`
}

// CirculationSummary counts transactions per status, refreshing overdue
// statuses first
func (s *ReportService) CirculationSummary(ctx context.Context) (*CirculationReport, error) {
	if _, err := s.circulation.RefreshOverdueStatuses(ctx); err != nil {
		return nil, err
	}

	report := &CirculationReport{}
	var err error
	if report.Issued, err = s.store.CountTransactionsByStatus(ctx, models.TransactionStatusIssued); err != nil {
		return nil, err
	}
	if report.Returned, err = s.store.CountTransactionsByStatus(ctx, models.TransactionStatusReturned); err != nil {
		return nil, err
	}
	if report.Overdue, err = s.store.CountTransactionsByStatus(ctx, models.TransactionStatusOverdue); err != nil {
		return nil, err
	}
	return report, nil
}

// FinesReport lists fines in a status with their total amount
func (s *ReportService) FinesReport(ctx context.Context, status string) ([]models.Fine, float64, error) {
	if status == "" {
		status = models.FineStatusPending
	}

	fines, err := s.fines.GetFines(ctx, 0, status)
	if err != nil {
		return nil, 0, err
	}

	var total float64
	for i := range fines {
		total += fines[i].Amount
	}
	return fines, total, nil
}
