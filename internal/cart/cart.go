// Package cart implements the in-memory shopping cart used by checkout
// sessions. A cart keeps one line per product, in insertion order.
package cart

import (
	"errors"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
)

// ErrOutOfStock is returned when a product with tracked, depleted
// inventory is added to the cart.
var ErrOutOfStock = errors.New("product is out of stock")

// Line is a cart entry: a product snapshot and the chosen quantity.
type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

// Cart is an ordered collection of lines. It is not safe for concurrent
// use; checkout sessions serialize access to it.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem adds qty of product to the cart, merging into an existing line
// for the same product. Products with tracked inventory at zero are
// rejected and the cart is left unchanged. The cart never decrements
// inventory; stock is display-only until order fulfillment.
func (c *Cart) AddItem(product models.Product, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	if !product.InStock() {
		return ErrOutOfStock
	}

	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID {
			c.lines[i].Quantity += qty
			return nil
		}
	}

	c.lines = append(c.lines, Line{Product: product, Quantity: qty})
	return nil
}

// UpdateQuantity sets the quantity for a product's line. A quantity of
// zero (or less) removes the line; a zero-quantity line is never kept.
// Quantities are not clamped to inventory, matching storefront behavior.
// Returns false if no line exists for the product.
func (c *Cart) UpdateQuantity(productID int64, qty int) bool {
	for i := range c.lines {
		if c.lines[i].Product.ID != productID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = qty
		}
		return true
	}
	return false
}

// Remove deletes the line for a product, if present.
func (c *Cart) Remove(productID int64) bool {
	return c.UpdateQuantity(productID, 0)
}

// ItemCount is the sum of quantities across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// PricingLines projects the cart into the shape the pricing calculator
// consumes.
func (c *Cart) PricingLines() []pricing.Line {
	out := make([]pricing.Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, pricing.Line{UnitPrice: l.Product.Price, Quantity: l.Quantity})
	}
	return out
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
