package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"library-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBookIssued publishes a BookIssued event
func (ep *EventPublisher) PublishBookIssued(ctx context.Context, event *models.BookIssuedEvent) error {
	key := fmt.Sprintf("transaction-%d", event.TransactionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBookReturned publishes a BookReturned event
func (ep *EventPublisher) PublishBookReturned(ctx context.Context, event *models.BookReturnedEvent) error {
	key := fmt.Sprintf("transaction-%d", event.TransactionID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishFineAssessed publishes a FineAssessed event
func (ep *EventPublisher) PublishFineAssessed(ctx context.Context, event *models.FineAssessedEvent) error {
	key := fmt.Sprintf("fine-%d", event.FineID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishFinePaid publishes a FinePaid event
func (ep *EventPublisher) PublishFinePaid(ctx context.Context, event *models.FinePaidEvent) error {
	key := fmt.Sprintf("fine-%d", event.FineID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishFineWaived publishes a FineWaived event
func (ep *EventPublisher) PublishFineWaived(ctx context.Context, event *models.FineWaivedEvent) error {
	key := fmt.Sprintf("fine-%d", event.FineID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOverdueSwept publishes an OverdueSwept event
func (ep *EventPublisher) PublishOverdueSwept(ctx context.Context, event *models.OverdueSweptEvent) error {
	return ep.producer.PublishEvent(ctx, "overdue-sweep", event)
}

// EventHandler handles incoming events
type EventHandler struct {
	onFineAssessed func(context.Context, *models.FineAssessedEvent) error
	onBookReturned func(context.Context, *models.BookReturnedEvent) error
	onOverdueSwept func(context.Context, *models.OverdueSweptEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnFineAssessed registers a handler for FineAssessed events
func (eh *EventHandler) OnFineAssessed(handler func(context.Context, *models.FineAssessedEvent) error) {
	eh.onFineAssessed = handler
}

// OnBookReturned registers a handler for BookReturned events
func (eh *EventHandler) OnBookReturned(handler func(context.Context, *models.BookReturnedEvent) error) {
	eh.onBookReturned = handler
}

// OnOverdueSwept registers a handler for OverdueSwept events
func (eh *EventHandler) OnOverdueSwept(handler func(context.Context, *models.OverdueSweptEvent) error) {
	eh.onOverdueSwept = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeFineAssessed:
		if eh.onFineAssessed != nil {
			var event models.FineAssessedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal FineAssessed event: %w", err)
			}
			return eh.onFineAssessed(ctx, &event)
		}

	case models.EventTypeBookReturned:
		if eh.onBookReturned != nil {
			var event models.BookReturnedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal BookReturned event: %w", err)
			}
			return eh.onBookReturned(ctx, &event)
		}

	case models.EventTypeOverdueSwept:
		if eh.onOverdueSwept != nil {
			var event models.OverdueSweptEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal OverdueSwept event: %w", err)
			}
			return eh.onOverdueSwept(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
