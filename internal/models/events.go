package models

import "time"

// Event types
const (
	EventTypeStockUpdated      = "STOCK_UPDATED"
	EventTypeStockAlertRaised  = "STOCK_ALERT_RAISED"
	EventTypeChatSessionOpened = "CHAT_SESSION_OPENED"
	EventTypeChatMessageSent   = "CHAT_MESSAGE_SENT"
	EventTypeChatSessionClosed = "CHAT_SESSION_CLOSED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockUpdatedEvent published on every stock mutation
type StockUpdatedEvent struct {
	BaseEvent
	ProductID   int64  `json:"product_id"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	Reason      string `json:"reason"`
}

// StockAlertRaisedEvent published when a product enters a low or out-of-stock state
type StockAlertRaisedEvent struct {
	BaseEvent
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	MinStock     int    `json:"min_stock"`
	AlertType    string `json:"alert_type"`
}

// ChatSessionOpenedEvent published when a customer opens a session
type ChatSessionOpenedEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

// ChatMessageSentEvent published for every appended chat message
type ChatMessageSentEvent struct {
	BaseEvent
	SessionID  string `json:"session_id"`
	MessageID  string `json:"message_id"`
	SenderID   string `json:"sender_id"`
	SenderType string `json:"sender_type"`
}

// ChatSessionClosedEvent published on explicit close and on auto-close
type ChatSessionClosedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}
