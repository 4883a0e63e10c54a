package models

import "time"

// Product represents a product in the catalog. The catalog itself is owned
// elsewhere; this service only reads and writes stock_quantity.
type Product struct {
	ID            int64     `db:"id" json:"id"`
	SKU           string    `db:"sku" json:"sku"`
	Name          string    `db:"name" json:"name"`
	Price         int64     `db:"price" json:"price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	MinStockLevel int       `db:"min_stock_level" json:"min_stock_level"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StockHistoryEntry is an append-only record of a single stock mutation
type StockHistoryEntry struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	OldQuantity int       `db:"old_quantity" json:"old_quantity"`
	NewQuantity int       `db:"new_quantity" json:"new_quantity"`
	Reason      string    `db:"reason" json:"reason"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// StockAlert is a transient in-memory alert, pruned after 24 hours
type StockAlert struct {
	ProductID    int64     `json:"product_id"`
	ProductName  string    `json:"product_name"`
	CurrentStock int       `json:"current_stock"`
	MinStock     int       `json:"min_stock"`
	AlertType    string    `json:"alert_type"`
	CreatedAt    time.Time `json:"created_at"`
	IsRead       bool      `json:"is_read"`
}

// Stock statuses / alert types
const (
	StockStatusInStock    = "in_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusOutOfStock = "out_of_stock"
)

// Reason codes attached to stock history entries. Sale and order count as
// consumption in the forecast; restock and manual do not.
const (
	StockReasonManual  = "manual"
	StockReasonSale    = "sale"
	StockReasonOrder   = "order"
	StockReasonRestock = "restock"
)

// StockStatus classifies a quantity against a minimum level
func StockStatus(quantity, minStock int) string {
	switch {
	case quantity <= 0:
		return StockStatusOutOfStock
	case quantity <= minStock:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// ChatMessage is a single message within a chat session
type ChatMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	SenderType  string    `json:"sender_type"`
	Body        string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	IsRead      bool      `json:"is_read"`
	MessageType string    `json:"message_type"`
}

// ChatSession owns its messages exclusively; messages are never shared or
// moved between sessions.
type ChatSession struct {
	SessionID     string        `json:"session_id"`
	CustomerID    string        `json:"customer_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	LastActivity  time.Time     `json:"last_activity"`
	AssignedAdmin string        `json:"assigned_admin,omitempty"`
	Messages      []ChatMessage `json:"messages"`
}

// Session statuses
const (
	SessionStatusWaiting = "waiting"
	SessionStatusActive  = "active"
	SessionStatusClosed  = "closed"
)

// Sender types
const (
	SenderTypeUser   = "user"
	SenderTypeAdmin  = "admin"
	SenderTypeSystem = "system"
)

// Message types
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)
