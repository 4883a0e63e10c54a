package worker

import (
	"context"
	"time"

	"passprint-service/internal/broker"
	"passprint-service/internal/models"
	"passprint-service/internal/redisclient"
	"passprint-service/internal/util"

	"go.uber.org/zap"
)

// Notification is one entry in the dashboard's alert feed
type Notification struct {
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	AlertType    string    `json:"alert_type"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	CreatedAt    time.Time `json:"created_at"`
}

// NotificationWorker consumes stock events and maintains the capped alert
// notification feed in Redis
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	redis        *redisclient.Client
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, redis *redisclient.Client) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnStockAlertRaised(w.handleAlertRaised)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

func (w *NotificationWorker) handleAlertRaised(ctx context.Context, event *models.StockAlertRaisedEvent) error {
	// Consumer redelivery can replay an event; the feed entry is added once.
	fresh, err := w.redis.MarkEventSeen(ctx, event.EventID, 24*time.Hour)
	if err != nil {
		return err
	}
	if !fresh {
		w.logger.Debug("Skipping already-seen alert event", zap.String("event_id", event.EventID))
		return nil
	}

	notification := Notification{
		ProductID:    event.ProductID,
		ProductName:  event.ProductName,
		AlertType:    event.AlertType,
		CurrentStock: event.CurrentStock,
		MinStock:     event.MinStock,
		CreatedAt:    event.Timestamp,
	}

	if err := w.redis.PushNotification(ctx, notification); err != nil {
		return err
	}

	w.logger.Info("Stock alert notification queued",
		zap.Int64("product_id", event.ProductID),
		zap.String("alert_type", event.AlertType))
	return nil
}
