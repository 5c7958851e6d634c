// Package pricing computes checkout totals. All amounts are int64 minor
// currency units; the tax rate is expressed in basis points so no floating
// point enters any monetary calculation.
package pricing

import "storefront-service/internal/models"

// Rates are the business parameters a quote is computed against.
type Rates struct {
	TaxRateBps            int64 // e.g. 1800 = 18% VAT
	FlatShippingFee       int64
	FreeShippingThreshold int64
}

// Line is a (unit price, quantity) pair from the cart.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Quote is the computed price breakdown for a cart.
// Total = Subtotal - Discount + Tax + Shipping.
type Quote struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Subtotal sums the lines without discount, tax or shipping.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.UnitPrice * int64(l.Quantity)
	}
	return sum
}

// Compute calculates the quote for the given lines. The discount, when
// present, is applied to the subtotal before tax: tax and the free-shipping
// check both see the discounted amount.
func Compute(lines []Line, discount *models.Discount, rates Rates) Quote {
	var q Quote
	for _, l := range lines {
		q.Subtotal += l.UnitPrice * int64(l.Quantity)
	}

	q.Discount = discountAmount(discount, q.Subtotal)
	discounted := q.Subtotal - q.Discount

	q.Tax = taxOn(discounted, rates.TaxRateBps)
	if discounted > rates.FreeShippingThreshold {
		q.Shipping = 0
	} else {
		q.Shipping = rates.FlatShippingFee
	}

	q.Total = discounted + q.Tax + q.Shipping
	return q
}

// discountAmount returns how much the discount reduces the subtotal.
// A fixed discount never drives the discounted subtotal negative.
func discountAmount(d *models.Discount, subtotal int64) int64 {
	if d == nil || subtotal == 0 {
		return 0
	}
	switch d.Type {
	case models.DiscountTypePercentage:
		return roundHalfUp(subtotal*d.Value, 100)
	case models.DiscountTypeFixed:
		if d.Value > subtotal {
			return subtotal
		}
		return d.Value
	}
	return 0
}

// taxOn computes tax in minor units with half-up rounding.
func taxOn(amount, rateBps int64) int64 {
	return roundHalfUp(amount*rateBps, 10000)
}

func roundHalfUp(numerator, denominator int64) int64 {
	return (numerator + denominator/2) / denominator
}
