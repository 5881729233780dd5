package service

import (
	"context"
	"time"

	"library-service/internal/broker"
	"library-service/internal/models"
	"library-service/internal/redisclient"
	"library-service/internal/store"
	"library-service/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const pendingTotalCacheTTL = 5 * time.Minute

// FineService owns the fine ledger: payment and waiver transitions plus
// aggregate queries. Fines are only ever created by the circulation engine.
type FineService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewFineService creates a new fine service
func NewFineService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *FineService {
	return &FineService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// PayFine settles a pending fine. Paying a fine that is already paid or
// waived fails with an invalid-state error; paid and waived are terminal.
func (s *FineService) PayFine(ctx context.Context, fineID int64, method string) (*models.Fine, error) {
	ctx, span := util.StartSpan(ctx, "FineService.PayFine")
	defer span.End()

	if method == "" {
		method = "cash"
	}

	f, err := s.store.PayFineTx(ctx, fineID, method, time.Now())
	if err != nil {
		return nil, err
	}

	util.FinesPaidTotal.Inc()
	s.logger.Info("Fine paid",
		zap.Int64("fine_id", f.ID),
		zap.Float64("amount", f.Amount),
		zap.String("payment_method", method))

	if err := s.redis.InvalidatePendingTotal(ctx, f.UserID); err != nil {
		s.logger.Warn("Failed to invalidate pending total cache", zap.Error(err))
	}

	event := &models.FinePaidEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeFinePaid,
			Timestamp: time.Now(),
		},
		FineID:        f.ID,
		UserID:        f.UserID,
		Amount:        f.Amount,
		PaymentMethod: method,
	}
	if err := s.eventPublisher.PublishFinePaid(ctx, event); err != nil {
		s.logger.Error("Failed to publish FinePaid event", zap.Error(err))
	}

	return f, nil
}

// WaiveFine waives a pending fine, with the same terminal-state guard as pay
func (s *FineService) WaiveFine(ctx context.Context, fineID int64) (*models.Fine, error) {
	ctx, span := util.StartSpan(ctx, "FineService.WaiveFine")
	defer span.End()

	f, err := s.store.WaiveFineTx(ctx, fineID)
	if err != nil {
		return nil, err
	}

	util.FinesWaivedTotal.Inc()
	s.logger.Info("Fine waived",
		zap.Int64("fine_id", f.ID),
		zap.Float64("amount", f.Amount))

	if err := s.redis.InvalidatePendingTotal(ctx, f.UserID); err != nil {
		s.logger.Warn("Failed to invalidate pending total cache", zap.Error(err))
	}

	event := &models.FineWaivedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeFineWaived,
			Timestamp: time.Now(),
		},
		FineID: f.ID,
		UserID: f.UserID,
		Amount: f.Amount,
	}
	if err := s.eventPublisher.PublishFineWaived(ctx, event); err != nil {
		s.logger.Error("Failed to publish FineWaived event", zap.Error(err))
	}

	return f, nil
}

// TotalPending sums pending fine amounts for one borrower (userID non-zero)
// or across all borrowers. Always returns 0, never an absent value, when
// there is nothing pending. Per-borrower totals are cached briefly.
func (s *FineService) TotalPending(ctx context.Context, userID int64) (float64, error) {
	if userID != 0 {
		if total, ok, err := s.redis.GetPendingTotal(ctx, userID); err == nil && ok {
			return total, nil
		}
	}

	total, err := s.store.TotalPending(ctx, userID)
	if err != nil {
		return 0, err
	}

	if userID != 0 {
		if err := s.redis.CachePendingTotal(ctx, userID, total, pendingTotalCacheTTL); err != nil {
			s.logger.Warn("Failed to cache pending total", zap.Error(err))
		}
	}

	return total, nil
}

// GetFine retrieves a fine by ID
func (s *FineService) GetFine(ctx context.Context, fineID int64) (*models.Fine, error) {
	return s.store.GetFineByID(ctx, fineID)
}

// GetFines lists fines, optionally filtered by borrower and status
func (s *FineService) GetFines(ctx context.Context, userID int64, status string) ([]models.Fine, error) {
	if err := validateFineStatus(status); err != nil {
		return nil, err
	}
	return s.store.GetFines(ctx, userID, status)
}

func validateFineStatus(status string) error {
	switch status {
	case "", models.FineStatusPending, models.FineStatusPaid, models.FineStatusWaived:
		return nil
	default:
		return errors.Wrapf(models.ErrValidation, "unknown fine status %q", status)
	}
}
