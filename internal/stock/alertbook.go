package stock

import (
	"sync"
	"time"

	"passprint-service/internal/models"
)

// AlertBook holds the transient stock alerts. Alerts live in memory only and
// are pruned once they are older than the retention window. A new alert is
// appended only when the computed alert type differs from the most recent
// alert for that product, so a sustained low-stock condition does not flood
// the book on every sweep tick.
type AlertBook struct {
	mu        sync.Mutex
	alerts    []models.StockAlert
	lastType  map[int64]string
	retention time.Duration

	now func() time.Time
}

// NewAlertBook creates an alert book with the given retention window
func NewAlertBook(retention time.Duration) *AlertBook {
	return &AlertBook{
		lastType:  make(map[int64]string),
		retention: retention,
		now:       time.Now,
	}
}

// Evaluate reclassifies a product's stock state and appends an alert when the
// state is alertable and changed since the last recorded alert. Returns the
// appended alert, or nil when nothing was appended.
func (b *AlertBook) Evaluate(productID int64, productName string, currentStock, minStock int) *models.StockAlert {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.pruneLocked(now)

	status := models.StockStatus(currentStock, minStock)
	if status == models.StockStatusInStock {
		// Recovery clears the dedup state so the next depletion alerts again.
		delete(b.lastType, productID)
		return nil
	}

	if b.lastType[productID] == status {
		return nil
	}

	alert := models.StockAlert{
		ProductID:    productID,
		ProductName:  productName,
		CurrentStock: currentStock,
		MinStock:     minStock,
		AlertType:    status,
		CreatedAt:    now,
	}

	b.alerts = append(b.alerts, alert)
	b.lastType[productID] = status
	return &alert
}

// Alerts returns all retained alerts in insertion order, newest last
func (b *AlertBook) Alerts() []models.StockAlert {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(b.now())

	out := make([]models.StockAlert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

// Recent returns the last n alerts in insertion order
func (b *AlertBook) Recent(n int) []models.StockAlert {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(b.now())

	if n > len(b.alerts) {
		n = len(b.alerts)
	}
	out := make([]models.StockAlert, n)
	copy(out, b.alerts[len(b.alerts)-n:])
	return out
}

// MarkRead flips the first unread alert for the product. A second call with
// no unread alert left reports ErrAlertNotFound.
func (b *AlertBook) MarkRead(productID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.alerts {
		if b.alerts[i].ProductID == productID && !b.alerts[i].IsRead {
			b.alerts[i].IsRead = true
			return nil
		}
	}
	return ErrAlertNotFound
}

func (b *AlertBook) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.retention)
	kept := b.alerts[:0]
	for _, alert := range b.alerts {
		if alert.CreatedAt.After(cutoff) {
			kept = append(kept, alert)
		}
	}
	b.alerts = kept
}
