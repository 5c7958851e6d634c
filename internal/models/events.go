package models

import "time"

// Event types
const (
	EventTypeStoreCreated       = "STORE_CREATED"
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeDiscountRedeemed   = "DISCOUNT_REDEEMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StoreCreatedEvent published when onboarding launches a new store
type StoreCreatedEvent struct {
	BaseEvent
	StoreID  int64  `json:"store_id"`
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Currency string `json:"currency"`
}

// OrderPlacedEvent published when a checkout completes
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	StoreID     int64           `json:"store_id"`
	Total       int64           `json:"total"`
	Items       []OrderItemData `json:"items"`
}

// OrderStatusChangedEvent published when a merchant moves an order
// through its lifecycle
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID   int64  `json:"order_id"`
	StoreID   int64  `json:"store_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// DiscountRedeemedEvent published when an order applies a discount code
type DiscountRedeemedEvent struct {
	BaseEvent
	StoreID int64  `json:"store_id"`
	Code    string `json:"code"`
	OrderID int64  `json:"order_id"`
	Amount  int64  `json:"amount"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
}
