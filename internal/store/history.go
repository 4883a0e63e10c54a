package store

import (
	"context"
	"time"

	"passprint-service/internal/models"
)

// GetStockHistory retrieves history entries for a product newer than since,
// newest first
func (s *Store) GetStockHistory(ctx context.Context, productID int64, since time.Time) ([]models.StockHistoryEntry, error) {
	var entries []models.StockHistoryEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM stock_history WHERE product_id = $1 AND created_at >= $2 ORDER BY created_at DESC, id DESC",
		productID, since)
	return entries, err
}
