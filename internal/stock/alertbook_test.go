package stock

import (
	"testing"
	"time"

	"passprint-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertBookAppendsOnTypeChangeOnly(t *testing.T) {
	b := NewAlertBook(24 * time.Hour)

	alert := b.Evaluate(1, "Business Cards", 3, 5)
	require.NotNil(t, alert)
	assert.Equal(t, models.StockStatusLowStock, alert.AlertType)

	// Same state again: no flood.
	assert.Nil(t, b.Evaluate(1, "Business Cards", 2, 5))
	assert.Len(t, b.Alerts(), 1)

	alert = b.Evaluate(1, "Business Cards", 0, 5)
	require.NotNil(t, alert)
	assert.Equal(t, models.StockStatusOutOfStock, alert.AlertType)

	// Recovery appends nothing and re-arms the product.
	assert.Nil(t, b.Evaluate(1, "Business Cards", 50, 5))
	assert.Len(t, b.Alerts(), 2)

	alert = b.Evaluate(1, "Business Cards", 4, 5)
	require.NotNil(t, alert)
	assert.Equal(t, models.StockStatusLowStock, alert.AlertType)
	assert.Len(t, b.Alerts(), 3)
}

func TestAlertBookPrunesOldAlerts(t *testing.T) {
	b := NewAlertBook(24 * time.Hour)

	current := time.Now()
	b.now = func() time.Time { return current }

	require.NotNil(t, b.Evaluate(1, "Flyers", 0, 5))
	assert.Len(t, b.Alerts(), 1)

	current = current.Add(25 * time.Hour)
	assert.Empty(t, b.Alerts())
}

func TestAlertBookRecent(t *testing.T) {
	b := NewAlertBook(24 * time.Hour)

	for i := int64(1); i <= 15; i++ {
		require.NotNil(t, b.Evaluate(i, "Product", 0, 5))
	}

	recent := b.Recent(10)
	require.Len(t, recent, 10)
	assert.Equal(t, int64(6), recent[0].ProductID)
	assert.Equal(t, int64(15), recent[9].ProductID)
}

func TestAlertBookMarkRead(t *testing.T) {
	b := NewAlertBook(24 * time.Hour)

	require.NotNil(t, b.Evaluate(1, "Posters", 0, 5))

	require.NoError(t, b.MarkRead(1))

	// Second call finds no unread alert left.
	err := b.MarkRead(1)
	assert.ErrorIs(t, err, ErrAlertNotFound)

	assert.ErrorIs(t, b.MarkRead(99), ErrAlertNotFound)
}
