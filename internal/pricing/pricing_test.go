package pricing

import (
	"math/rand"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

var testRates = Rates{
	TaxRateBps:            1800,
	FlatShippingFee:       15000,
	FreeShippingThreshold: 100000,
}

func TestComputeBelowFreeShipping(t *testing.T) {
	// 299 denars, qty 1: subtotal 299.00, tax 53.82, shipping 150.00
	q := Compute([]Line{{UnitPrice: 29900, Quantity: 1}}, nil, testRates)

	assert.Equal(t, int64(29900), q.Subtotal)
	assert.Equal(t, int64(5382), q.Tax)
	assert.Equal(t, int64(15000), q.Shipping)
	assert.Equal(t, int64(50282), q.Total)
}

func TestComputeAboveFreeShipping(t *testing.T) {
	// subtotal 1200 denars clears the 1000 threshold: free shipping
	q := Compute([]Line{{UnitPrice: 60000, Quantity: 2}}, nil, testRates)

	assert.Equal(t, int64(120000), q.Subtotal)
	assert.Equal(t, int64(21600), q.Tax)
	assert.Equal(t, int64(0), q.Shipping)
	assert.Equal(t, int64(141600), q.Total)
}

func TestComputeEmptyCart(t *testing.T) {
	q := Compute(nil, nil, testRates)

	assert.Equal(t, int64(0), q.Subtotal)
	assert.Equal(t, int64(0), q.Tax)
	assert.Equal(t, int64(15000), q.Shipping)
	assert.Equal(t, int64(15000), q.Total)
}

func TestPercentageDiscountBeforeTax(t *testing.T) {
	d := &models.Discount{Type: models.DiscountTypePercentage, Value: 20}

	q := Compute([]Line{{UnitPrice: 100000, Quantity: 1}}, d, testRates)

	assert.Equal(t, int64(100000), q.Subtotal)
	assert.Equal(t, int64(20000), q.Discount)
	// tax is computed on the discounted 800.00, not the raw subtotal
	assert.Equal(t, int64(14400), q.Tax)
	// discounted subtotal 800.00 is below the threshold, so shipping applies
	assert.Equal(t, int64(15000), q.Shipping)
	assert.Equal(t, int64(109400), q.Total)
}

func TestFixedDiscountClampedToSubtotal(t *testing.T) {
	d := &models.Discount{Type: models.DiscountTypeFixed, Value: 50000}

	q := Compute([]Line{{UnitPrice: 30000, Quantity: 1}}, d, testRates)

	assert.Equal(t, int64(30000), q.Subtotal)
	assert.Equal(t, int64(30000), q.Discount)
	assert.Equal(t, int64(0), q.Tax)
	assert.Equal(t, int64(15000), q.Shipping)
	assert.Equal(t, int64(15000), q.Total)
}

func TestFixedDiscount(t *testing.T) {
	d := &models.Discount{Type: models.DiscountTypeFixed, Value: 10000}

	q := Compute([]Line{{UnitPrice: 60000, Quantity: 2}}, d, testRates)

	assert.Equal(t, int64(120000), q.Subtotal)
	assert.Equal(t, int64(10000), q.Discount)
	assert.Equal(t, int64(19800), q.Tax)
	assert.Equal(t, int64(0), q.Shipping)
	assert.Equal(t, int64(129800), q.Total)
}

func TestQuoteIdentityRandomCarts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		n := rng.Intn(8)
		lines := make([]Line, 0, n)
		var wantSubtotal int64
		for j := 0; j < n; j++ {
			l := Line{
				UnitPrice: int64(rng.Intn(500000)),
				Quantity:  1 + rng.Intn(9),
			}
			wantSubtotal += l.UnitPrice * int64(l.Quantity)
			lines = append(lines, l)
		}

		q := Compute(lines, nil, testRates)

		assert.Equal(t, wantSubtotal, q.Subtotal)
		assert.Equal(t, taxOn(q.Subtotal, testRates.TaxRateBps), q.Tax)
		assert.Equal(t, q.Subtotal-q.Discount+q.Tax+q.Shipping, q.Total)
		assert.GreaterOrEqual(t, q.Tax, int64(0))
		assert.GreaterOrEqual(t, q.Total, int64(0))
	}
}

func TestQuoteIdentityWithRandomDiscounts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		lines := []Line{{
			UnitPrice: int64(rng.Intn(300000)),
			Quantity:  1 + rng.Intn(5),
		}}

		var d *models.Discount
		if rng.Intn(2) == 0 {
			d = &models.Discount{Type: models.DiscountTypePercentage, Value: int64(rng.Intn(101))}
		} else {
			d = &models.Discount{Type: models.DiscountTypeFixed, Value: int64(rng.Intn(400000))}
		}

		q := Compute(lines, d, testRates)

		assert.LessOrEqual(t, q.Discount, q.Subtotal)
		assert.GreaterOrEqual(t, q.Discount, int64(0))
		assert.Equal(t, q.Subtotal-q.Discount+q.Tax+q.Shipping, q.Total)
	}
}
