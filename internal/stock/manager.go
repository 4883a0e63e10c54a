package stock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"passprint-service/internal/models"
	"passprint-service/internal/util"

	"go.uber.org/zap"
)

// Store is the persistence surface the manager needs. *store.Store satisfies
// it; tests inject an in-memory fake.
type Store interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetActiveProducts(ctx context.Context) ([]models.Product, error)
	UpdateStockTx(ctx context.Context, productID int64, newQuantity int, reason string) (*models.Product, int, error)
	GetStockHistory(ctx context.Context, productID int64, since time.Time) ([]models.StockHistoryEntry, error)
}

// EventPublisher publishes stock domain events
type EventPublisher interface {
	PublishStockUpdated(ctx context.Context, event *models.StockUpdatedEvent) error
	PublishStockAlertRaised(ctx context.Context, event *models.StockAlertRaisedEvent) error
}

// SnapshotCache caches the stock levels snapshot between dashboard polls
type SnapshotCache interface {
	CacheStockSnapshot(ctx context.Context, snapshot interface{}, ttl time.Duration) error
	GetStockSnapshot(ctx context.Context, dest interface{}) (bool, error)
	InvalidateStockSnapshot(ctx context.Context) error
}

// baseEventFunc builds the common event envelope. Injected (broker.NewBaseEvent
// in production) so the manager does not import the broker package.
type baseEventFunc func(eventType string) models.BaseEvent

// Manager owns stock counts, the mutation history, and alert evaluation
type Manager struct {
	store        Store
	cache        SnapshotCache
	events       EventPublisher
	alerts       *AlertBook
	newBaseEvent baseEventFunc
	logger       *zap.Logger

	lookbackDays  int
	restockBuffer int
	snapshotTTL   time.Duration
}

// Options tunes manager behavior; zero values fall back to defaults
type Options struct {
	AlertRetention time.Duration
	LookbackDays   int
	RestockBuffer  int
	SnapshotTTL    time.Duration
}

// NewManager creates a new stock manager. Cache and events may be nil, in
// which case caching and event publishing are skipped.
func NewManager(store Store, cache SnapshotCache, events EventPublisher, newBaseEvent func(string) models.BaseEvent, opts Options) *Manager {
	if opts.AlertRetention <= 0 {
		opts.AlertRetention = 24 * time.Hour
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 90
	}
	if opts.RestockBuffer <= 0 {
		opts.RestockBuffer = 10
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = 30 * time.Second
	}
	if newBaseEvent == nil {
		newBaseEvent = func(eventType string) models.BaseEvent {
			return models.BaseEvent{EventType: eventType, Timestamp: time.Now().UTC()}
		}
	}

	return &Manager{
		store:         store,
		cache:         cache,
		events:        events,
		alerts:        NewAlertBook(opts.AlertRetention),
		newBaseEvent:  newBaseEvent,
		logger:        util.GetLogger(),
		lookbackDays:  opts.LookbackDays,
		restockBuffer: opts.RestockBuffer,
		snapshotTTL:   opts.SnapshotTTL,
	}
}

// StockUpdate is the result of a stock mutation
type StockUpdate struct {
	ProductID   int64  `json:"product_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason"`
}

// ProductStockInfo is one product's row in the stock levels snapshot
type ProductStockInfo struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	MinStock int    `json:"min_stock"`
	Status   string `json:"status"`
	Value    int64  `json:"value"`
}

// StockSummary aggregates the snapshot
type StockSummary struct {
	TotalProducts int   `json:"total_products"`
	InStock       int   `json:"in_stock"`
	LowStock      int   `json:"low_stock"`
	OutOfStock    int   `json:"out_of_stock"`
	TotalValue    int64 `json:"total_value"`
}

// StockLevels is the full snapshot the dashboard binds to
type StockLevels struct {
	Products []ProductStockInfo  `json:"products"`
	Summary  StockSummary        `json:"summary"`
	Alerts   []models.StockAlert `json:"alerts"`
}

// StockForecast is a consumption-based restock prediction
type StockForecast struct {
	ProductID            int64   `json:"product_id"`
	CurrentStock         int     `json:"current_stock"`
	PredictedConsumption float64 `json:"predicted_consumption"`
	PredictedStock       float64 `json:"predicted_stock"`
	NeedsRestock         bool    `json:"needs_restock"`
	RecommendedOrder     float64 `json:"recommended_order"`
}

// UpdateStock overwrites a product's stock quantity, records the history
// entry, and re-evaluates the product's alert state
func (m *Manager) UpdateStock(ctx context.Context, productID int64, newQuantity int, reason string) (*StockUpdate, error) {
	ctx, span := util.StartSpan(ctx, "StockManager.UpdateStock")
	defer span.End()

	if reason == "" {
		reason = models.StockReasonManual
	}

	product, oldQuantity, err := m.store.UpdateStockTx(ctx, productID, newQuantity, reason)
	if errors.Is(err, sql.ErrNoRows) {
		util.StockUpdateFailuresTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("storage").Inc()
		return nil, fmt.Errorf("stock update failed: %w", err)
	}

	util.StockUpdatesTotal.WithLabelValues(reason).Inc()
	m.logger.Info("Stock updated",
		zap.Int64("product_id", productID),
		zap.Int("old_quantity", oldQuantity),
		zap.Int("new_quantity", newQuantity),
		zap.String("reason", reason))

	m.evaluateAlert(ctx, product)

	if m.events != nil {
		event := &models.StockUpdatedEvent{
			BaseEvent:   m.newBaseEvent(models.EventTypeStockUpdated),
			ProductID:   productID,
			OldQuantity: oldQuantity,
			NewQuantity: newQuantity,
			Reason:      reason,
		}
		if err := m.events.PublishStockUpdated(ctx, event); err != nil {
			m.logger.Error("Failed to publish StockUpdated event", zap.Error(err))
		}
	}

	if m.cache != nil {
		if err := m.cache.InvalidateStockSnapshot(ctx); err != nil {
			m.logger.Warn("Failed to invalidate stock snapshot", zap.Error(err))
		}
	}

	return &StockUpdate{
		ProductID:   productID,
		OldQuantity: oldQuantity,
		NewQuantity: newQuantity,
		Reason:      reason,
	}, nil
}

// GetStockLevels classifies every active product and aggregates the summary.
// The snapshot is cached briefly between dashboard polls.
func (m *Manager) GetStockLevels(ctx context.Context) (*StockLevels, error) {
	ctx, span := util.StartSpan(ctx, "StockManager.GetStockLevels")
	defer span.End()

	if m.cache != nil {
		var cached StockLevels
		ok, err := m.cache.GetStockSnapshot(ctx, &cached)
		if err != nil {
			m.logger.Warn("Failed to read stock snapshot cache", zap.Error(err))
		} else if ok {
			return &cached, nil
		}
	}

	products, err := m.store.GetActiveProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	levels := &StockLevels{
		Products: make([]ProductStockInfo, 0, len(products)),
		Alerts:   m.alerts.Recent(10),
	}

	for _, p := range products {
		status := models.StockStatus(p.StockQuantity, p.MinStockLevel)
		switch status {
		case models.StockStatusOutOfStock:
			levels.Summary.OutOfStock++
		case models.StockStatusLowStock:
			levels.Summary.LowStock++
		default:
			levels.Summary.InStock++
		}

		value := int64(p.StockQuantity) * p.Price
		levels.Products = append(levels.Products, ProductStockInfo{
			ID:       p.ID,
			Name:     p.Name,
			Quantity: p.StockQuantity,
			MinStock: p.MinStockLevel,
			Status:   status,
			Value:    value,
		})
		levels.Summary.TotalValue += value
	}
	levels.Summary.TotalProducts = len(products)

	if m.cache != nil {
		if err := m.cache.CacheStockSnapshot(ctx, levels, m.snapshotTTL); err != nil {
			m.logger.Warn("Failed to cache stock snapshot", zap.Error(err))
		}
	}

	return levels, nil
}

// GetStockAlerts returns all retained alerts in insertion order
func (m *Manager) GetStockAlerts() []models.StockAlert {
	return m.alerts.Alerts()
}

// MarkAlertRead flips the first unread alert for the product
func (m *Manager) MarkAlertRead(productID int64) error {
	return m.alerts.MarkRead(productID)
}

// GetStockHistory returns history entries within the day window, newest first
func (m *Manager) GetStockHistory(ctx context.Context, productID int64, days int) ([]models.StockHistoryEntry, error) {
	ctx, span := util.StartSpan(ctx, "StockManager.GetStockHistory")
	defer span.End()

	if days <= 0 {
		days = 30
	}

	since := time.Now().AddDate(0, 0, -days)
	entries, err := m.store.GetStockHistory(ctx, productID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock history: %w", err)
	}
	return entries, nil
}

// PredictStockNeeds forecasts consumption from the sale/order history over
// the lookback window. Pure function of stored history and current quantity.
func (m *Manager) PredictStockNeeds(ctx context.Context, productID int64, daysAhead int) (*StockForecast, error) {
	ctx, span := util.StartSpan(ctx, "StockManager.PredictStockNeeds")
	defer span.End()

	if daysAhead <= 0 {
		daysAhead = 30
	}

	product, err := m.store.GetProductByID(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	since := time.Now().AddDate(0, 0, -m.lookbackDays)
	entries, err := m.store.GetStockHistory(ctx, productID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock history: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: product %d", ErrInsufficientHistory, productID)
	}

	var totalConsumed int
	for _, e := range entries {
		if e.Reason != models.StockReasonSale && e.Reason != models.StockReasonOrder {
			continue
		}
		if delta := e.OldQuantity - e.NewQuantity; delta > 0 {
			totalConsumed += delta
		}
	}

	avgDaily := float64(totalConsumed) / float64(m.lookbackDays)
	predictedConsumption := round2(avgDaily * float64(daysAhead))
	predictedStock := round2(float64(product.StockQuantity) - predictedConsumption)
	recommendedOrder := math.Max(0, round2(float64(product.MinStockLevel)-predictedStock+float64(m.restockBuffer)))

	return &StockForecast{
		ProductID:            productID,
		CurrentStock:         product.StockQuantity,
		PredictedConsumption: predictedConsumption,
		PredictedStock:       predictedStock,
		NeedsRestock:         predictedStock < float64(product.MinStockLevel),
		RecommendedOrder:     recommendedOrder,
	}, nil
}

// SweepAlerts re-evaluates the alert state of every active product. Called by
// the background sweeper so external mutations still raise alerts.
func (m *Manager) SweepAlerts(ctx context.Context) error {
	ctx, span := util.StartSpan(ctx, "StockManager.SweepAlerts")
	defer span.End()

	products, err := m.store.GetActiveProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products for sweep: %w", err)
	}

	for i := range products {
		m.evaluateAlert(ctx, &products[i])
	}
	return nil
}

func (m *Manager) evaluateAlert(ctx context.Context, product *models.Product) {
	alert := m.alerts.Evaluate(product.ID, product.Name, product.StockQuantity, product.MinStockLevel)
	if alert == nil {
		return
	}

	util.StockAlertsRaisedTotal.WithLabelValues(alert.AlertType).Inc()
	m.logger.Warn("Stock alert raised",
		zap.Int64("product_id", alert.ProductID),
		zap.String("alert_type", alert.AlertType),
		zap.Int("current_stock", alert.CurrentStock))

	if m.events == nil {
		return
	}
	event := &models.StockAlertRaisedEvent{
		BaseEvent:    m.newBaseEvent(models.EventTypeStockAlertRaised),
		ProductID:    alert.ProductID,
		ProductName:  alert.ProductName,
		CurrentStock: alert.CurrentStock,
		MinStock:     alert.MinStock,
		AlertType:    alert.AlertType,
	}
	if err := m.events.PublishStockAlertRaised(ctx, event); err != nil {
		m.logger.Error("Failed to publish StockAlertRaised event", zap.Error(err))
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
