package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"passprint-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events. Stock and chat events go
// to separate topics.
type EventPublisher struct {
	stockProducer *Producer
	chatProducer  *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(stockProducer, chatProducer *Producer) *EventPublisher {
	return &EventPublisher{
		stockProducer: stockProducer,
		chatProducer:  chatProducer,
	}
}

// NewBaseEvent fills the common event fields
func NewBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// PublishStockUpdated publishes a StockUpdated event
func (ep *EventPublisher) PublishStockUpdated(ctx context.Context, event *models.StockUpdatedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.stockProducer.PublishEvent(ctx, key, event)
}

// PublishStockAlertRaised publishes a StockAlertRaised event
func (ep *EventPublisher) PublishStockAlertRaised(ctx context.Context, event *models.StockAlertRaisedEvent) error {
	key := fmt.Sprintf("product-%d", event.ProductID)
	return ep.stockProducer.PublishEvent(ctx, key, event)
}

// PublishChatSessionOpened publishes a ChatSessionOpened event
func (ep *EventPublisher) PublishChatSessionOpened(ctx context.Context, event *models.ChatSessionOpenedEvent) error {
	return ep.chatProducer.PublishEvent(ctx, event.SessionID, event)
}

// PublishChatMessageSent publishes a ChatMessageSent event
func (ep *EventPublisher) PublishChatMessageSent(ctx context.Context, event *models.ChatMessageSentEvent) error {
	return ep.chatProducer.PublishEvent(ctx, event.SessionID, event)
}

// PublishChatSessionClosed publishes a ChatSessionClosed event
func (ep *EventPublisher) PublishChatSessionClosed(ctx context.Context, event *models.ChatSessionClosedEvent) error {
	return ep.chatProducer.PublishEvent(ctx, event.SessionID, event)
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onStockUpdated     func(context.Context, *models.StockUpdatedEvent) error
	onStockAlertRaised func(context.Context, *models.StockAlertRaisedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnStockUpdated registers a handler for StockUpdated events
func (eh *EventHandler) OnStockUpdated(handler func(context.Context, *models.StockUpdatedEvent) error) {
	eh.onStockUpdated = handler
}

// OnStockAlertRaised registers a handler for StockAlertRaised events
func (eh *EventHandler) OnStockAlertRaised(handler func(context.Context, *models.StockAlertRaisedEvent) error) {
	eh.onStockAlertRaised = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeStockUpdated:
		if eh.onStockUpdated != nil {
			var event models.StockUpdatedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockUpdated event: %w", err)
			}
			return eh.onStockUpdated(ctx, &event)
		}

	case models.EventTypeStockAlertRaised:
		if eh.onStockAlertRaised != nil {
			var event models.StockAlertRaisedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal StockAlertRaised event: %w", err)
			}
			return eh.onStockAlertRaised(ctx, &event)
		}
	}

	return nil
}
