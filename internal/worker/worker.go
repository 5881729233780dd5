package worker

import (
	"context"
	"log"
	"time"

	"library-service/internal/broker"
	"library-service/internal/models"
	"library-service/internal/service"
	"library-service/internal/store"
	"library-service/internal/util"

	"go.uber.org/zap"
)

// OverdueWorker periodically runs the overdue status sweep. The sweep is
// lazy and idempotent, so the engine stays correct if this worker never
// fires; it just keeps reported statuses fresh between reads.
type OverdueWorker struct {
	circulation *service.CirculationService
	interval    time.Duration
	logger      *zap.Logger
}

// NewOverdueWorker creates a new overdue sweep worker
func NewOverdueWorker(circulation *service.CirculationService, interval time.Duration) *OverdueWorker {
	return &OverdueWorker{
		circulation: circulation,
		interval:    interval,
		logger:      util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (w *OverdueWorker) Start(ctx context.Context) error {
	log.Printf("Starting overdue worker, interval=%s", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Overdue worker context cancelled, stopping...")
			return ctx.Err()
		case <-ticker.C:
			updated, err := w.circulation.RefreshOverdueStatuses(ctx)
			if err != nil {
				w.logger.Error("Overdue sweep failed", zap.Error(err))
				continue
			}
			if updated > 0 {
				w.logger.Info("Overdue sweep", zap.Int64("updated", updated))
			}
		}
	}
}

// NotificationWorker consumes circulation events and records borrower
// notifications. Event handling is idempotent via the processed_events table.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	store        *store.Store
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, st *store.Store) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		store:    st,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnFineAssessed(w.handleFineAssessed)
	eventHandler.OnOverdueSwept(w.handleOverdueSwept)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	log.Println("Starting notification worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	log.Println("Stopping notification worker...")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleFineAssessed(ctx context.Context, event *models.FineAssessedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	// Delivery channel (email/SMS) is out of scope; log the notification
	// and record the event so redelivery is a no-op.
	w.logger.Info("Notifying borrower of fine",
		zap.Int64("user_id", event.UserID),
		zap.Int64("fine_id", event.FineID),
		zap.Float64("amount", event.Amount),
		zap.Int("days_overdue", event.DaysOverdue))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *NotificationWorker) handleOverdueSwept(ctx context.Context, event *models.OverdueSweptEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		return nil
	}

	w.logger.Info("Overdue sweep notification",
		zap.Int64("updated", event.Updated))

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
