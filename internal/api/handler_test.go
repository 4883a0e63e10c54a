package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"passprint-service/internal/chat"
	"passprint-service/internal/models"
	"passprint-service/internal/stock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	history  map[int64][]models.StockHistoryEntry
}

func (f *fakeStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *p
	return &copied, nil
}

func (f *fakeStore) GetActiveProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateStockTx(ctx context.Context, productID int64, newQuantity int, reason string) (*models.Product, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return nil, 0, sql.ErrNoRows
	}
	old := p.StockQuantity
	p.StockQuantity = newQuantity
	f.history[productID] = append(f.history[productID], models.StockHistoryEntry{
		ProductID:   productID,
		OldQuantity: old,
		NewQuantity: newQuantity,
		Reason:      reason,
		CreatedAt:   time.Now(),
	})
	copied := *p
	return &copied, old, nil
}

func (f *fakeStore) GetStockHistory(ctx context.Context, productID int64, since time.Time) ([]models.StockHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StockHistoryEntry
	for i := len(f.history[productID]) - 1; i >= 0; i-- {
		if e := f.history[productID][i]; !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs := &fakeStore{
		products: map[int64]*models.Product{
			1: {ID: 1, Name: "Business Cards", Price: 2500, StockQuantity: 20, MinStockLevel: 5, IsActive: true},
		},
		history: make(map[int64][]models.StockHistoryEntry),
	}

	stockManager := stock.NewManager(fs, nil, nil, nil, stock.Options{})
	chatRegistry := chat.NewRegistry(nil, nil, nil, chat.Options{})

	router := gin.New()
	NewHandler(stockManager, chatRegistry).SetupRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestStockUpdateEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/stock/update", gin.H{
		"product_id": 1, "quantity": 3, "reason": "sale",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(20), resp["old_quantity"])
	assert.Equal(t, float64(3), resp["new_quantity"])
	assert.Equal(t, "sale", resp["reason"])
}

func TestStockUpdateUnknownProduct(t *testing.T) {
	router := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/stock/update", gin.H{
		"product_id": 42, "quantity": 3, "reason": "sale",
	})

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, resp["error"], "not found")
}

func TestStockLevelsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	// Drop into low stock first so an alert shows up in the snapshot.
	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/stock/update", gin.H{
		"product_id": 1, "quantity": 3, "reason": "sale",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/stock/levels", nil)
	require.Equal(t, http.StatusOK, w.Code)

	summary := resp["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["total_products"])
	assert.Equal(t, float64(1), summary["low_stock"])
	assert.Equal(t, float64(3*2500), summary["total_value"])

	products := resp["products"].([]interface{})
	require.Len(t, products, 1)
	assert.Equal(t, "low_stock", products[0].(map[string]interface{})["status"])

	alerts := resp["alerts"].([]interface{})
	require.Len(t, alerts, 1)
}

func TestStockForecastWithoutHistory(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodGet, "/api/v1/stock/forecast/1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestChatSessionFlow(t *testing.T) {
	router := newTestRouter(t)

	w, resp := doJSON(t, router, http.MethodPost, "/api/v1/chat/sessions", gin.H{
		"customer_id": "c1", "customer_name": "Ann", "customer_email": "ann@x.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	sessionID := resp["session_id"].(string)
	require.NotEmpty(t, sessionID)

	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", gin.H{
		"session_id": sessionID, "sender_id": "c1", "sender_name": "Ann",
		"message": "I need 200 flyers", "sender_type": "user",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/chat/sessions/%s/assign", sessionID), gin.H{
		"admin_id": "a1", "admin_name": "Max",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/chat/sessions/%s/messages", sessionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", resp["status"])
	assert.Equal(t, float64(3), resp["total_messages"])

	w, _ = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/chat/sessions/%s/close", sessionID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Messages after close are rejected.
	w, resp = doJSON(t, router, http.MethodPost, "/api/v1/chat/messages", gin.H{
		"session_id": sessionID, "sender_id": "c1", "sender_name": "Ann",
		"message": "hello?", "sender_type": "user",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, resp["error"], "closed")
}

func TestChatStatsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/chat/sessions", gin.H{
		"customer_id": "c1", "customer_name": "Ann", "customer_email": "ann@x.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := doJSON(t, router, http.MethodGet, "/api/v1/chat/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["total_sessions"])
	assert.Equal(t, float64(1), resp["waiting_sessions"])
}
