package models

import "time"

// All monetary amounts are int64 minor currency units (deni for MKD).

// Store represents a merchant storefront
type Store struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Slug         string    `db:"slug" json:"slug"`
	Description  string    `db:"description" json:"description"`
	Category     string    `db:"category" json:"category"`
	Currency     string    `db:"currency" json:"currency"`
	Theme        string    `db:"theme" json:"theme"`
	Status       string    `db:"status" json:"status"`
	BusinessName string    `db:"business_name" json:"business_name"`
	OwnerName    string    `db:"owner_name" json:"owner_name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Address      string    `db:"address" json:"address"`
	City         string    `db:"city" json:"city"`
	PostalCode   string    `db:"postal_code" json:"postal_code"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StoreSettings holds merchant-editable storefront configuration
type StoreSettings struct {
	StoreID               int64    `db:"store_id" json:"store_id"`
	PrimaryColor          string   `db:"primary_color" json:"primary_color"`
	SecondaryColor        string   `db:"secondary_color" json:"secondary_color"`
	Font                  string   `db:"font" json:"font"`
	Layout                string   `db:"layout" json:"layout"`
	PaymentMethods        []string `db:"-" json:"payment_methods"`
	BankAccount           string   `db:"bank_account" json:"bank_account,omitempty"`
	TaxNumber             string   `db:"tax_number" json:"tax_number,omitempty"`
	FreeShippingThreshold int64    `db:"free_shipping_threshold" json:"free_shipping_threshold"`
}

// Product represents a product in a store's catalog.
// Inventory is nil for untracked (unlimited) stock.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	StoreID     int64     `db:"store_id" json:"store_id"`
	SKU         string    `db:"sku" json:"sku"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Price       int64     `db:"price" json:"price"`
	Category    string    `db:"category" json:"category,omitempty"`
	Inventory   *int      `db:"inventory" json:"inventory,omitempty"`
	Image       string    `db:"image" json:"image,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// InStock reports whether the product can currently be added to a cart.
// Untracked inventory is always purchasable.
func (p *Product) InStock() bool {
	return p.Inventory == nil || *p.Inventory > 0
}

// CustomerInfo is the buyer contact block captured at checkout
type CustomerInfo struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Order represents a placed customer order. Immutable after creation
// except for Status.
type Order struct {
	ID            int64        `db:"id" json:"id"`
	OrderNumber   string       `db:"order_number" json:"order_number"`
	StoreID       int64        `db:"store_id" json:"store_id"`
	Customer      CustomerInfo `db:"-" json:"customer"`
	Subtotal      int64        `db:"subtotal" json:"subtotal"`
	Discount      int64        `db:"discount" json:"discount"`
	Tax           int64        `db:"tax" json:"tax"`
	Shipping      int64        `db:"shipping" json:"shipping"`
	Total         int64        `db:"total" json:"total"`
	Status        string       `db:"status" json:"status"`
	PaymentMethod string       `db:"payment_method" json:"payment_method"`
	DiscountCode  string       `db:"discount_code" json:"discount_code,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// OrderItem is a line-item snapshot taken when the order was placed
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	Quantity    int    `db:"quantity" json:"quantity"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
}

// Discount represents a merchant-created discount code
type Discount struct {
	ID             int64      `db:"id" json:"id"`
	StoreID        int64      `db:"store_id" json:"store_id"`
	Code           string     `db:"code" json:"code"`
	Type           string     `db:"type" json:"type"`
	Value          int64      `db:"value" json:"value"`
	Description    string     `db:"description" json:"description,omitempty"`
	MinOrderAmount int64      `db:"min_order_amount" json:"min_order_amount,omitempty"`
	MaxUses        int        `db:"max_uses" json:"max_uses,omitempty"`
	UsedCount      int        `db:"used_count" json:"used_count"`
	StartDate      time.Time  `db:"start_date" json:"start_date"`
	EndDate        *time.Time `db:"end_date" json:"end_date,omitempty"`
	Enabled        bool       `db:"enabled" json:"enabled"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// Store statuses
const (
	StoreStatusActive   = "active"
	StoreStatusInactive = "inactive"
)

// Product statuses
const (
	ProductStatusActive   = "active"
	ProductStatusDraft    = "draft"
	ProductStatusInactive = "inactive"
)

// Order statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// Discount types
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// StoreStats is the dashboard analytics overview. Live* are the
// event-derived running totals the analytics worker keeps in redis;
// they can lead the durable aggregates while events are in flight.
type StoreStats struct {
	TotalRevenue      int64        `json:"total_revenue"`
	TotalOrders       int          `json:"total_orders"`
	TotalProducts     int          `json:"total_products"`
	AverageOrderValue int64        `json:"average_order_value"`
	StorefrontViews   int64        `json:"storefront_views"`
	LiveRevenue       int64        `json:"live_revenue"`
	LiveOrders        int64        `json:"live_orders"`
	TopProducts       []TopProduct `json:"top_products"`
	SalesByDay        []DailySales `json:"sales_by_day"`
}

// TopProduct is a best-seller entry in the analytics overview
type TopProduct struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitsSold   int    `json:"units_sold"`
	Revenue     int64  `json:"revenue"`
}

// DailySales is one day's aggregated sales
type DailySales struct {
	Date    string `json:"date"`
	Revenue int64  `json:"revenue"`
	Orders  int    `json:"orders"`
}
