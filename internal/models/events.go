package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published after an order commits
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []OrderLineData `json:"items"`
}

// OrderStatusChangedEvent published after a status transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// OrderLineData carries line details in events. StockRemaining is the
// item's stock after the order's decrement.
type OrderLineData struct {
	MenuItemID     int64           `json:"menu_item_id"`
	Name           string          `json:"name"`
	Quantity       int             `json:"quantity"`
	PriceAtOrder   decimal.Decimal `json:"price_at_order"`
	StockRemaining int             `json:"stock_remaining"`
}
