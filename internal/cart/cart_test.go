package cart

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func product(id int64, price int64, inventory *int) models.Product {
	return models.Product{
		ID:        id,
		Name:      "Test Product",
		Price:     price,
		Inventory: inventory,
		Status:    models.ProductStatusActive,
	}
}

func TestAddItemAppendsAndMerges(t *testing.T) {
	c := New()

	require.NoError(t, c.AddItem(product(1, 29900, intPtr(10)), 1))
	require.NoError(t, c.AddItem(product(2, 59900, nil), 2))
	require.NoError(t, c.AddItem(product(1, 29900, intPtr(10)), 3))

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, int64(1), lines[0].Product.ID)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, int64(2), lines[1].Product.ID)
	assert.Equal(t, 6, c.ItemCount())
}

func TestAddItemDefaultsQuantityToOne(t *testing.T) {
	c := New()

	require.NoError(t, c.AddItem(product(1, 29900, nil), 0))

	assert.Equal(t, 1, c.ItemCount())
}

func TestAddItemOutOfStock(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product(1, 29900, intPtr(5)), 1))

	err := c.AddItem(product(2, 9900, intPtr(0)), 1)

	assert.ErrorIs(t, err, ErrOutOfStock)
	// cart unchanged
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 1, c.ItemCount())
}

func TestAddItemUntrackedInventoryAlwaysInStock(t *testing.T) {
	c := New()

	assert.NoError(t, c.AddItem(product(1, 29900, nil), 1))
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product(1, 29900, nil), 2))
	require.NoError(t, c.AddItem(product(2, 9900, nil), 1))

	assert.True(t, c.UpdateQuantity(1, 0))

	for _, l := range c.Lines() {
		assert.NotEqual(t, int64(1), l.Product.ID)
	}
	assert.Equal(t, 1, c.ItemCount())
}

func TestUpdateQuantitySets(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product(1, 29900, nil), 2))

	assert.True(t, c.UpdateQuantity(1, 7))

	assert.Equal(t, 7, c.ItemCount())
}

func TestUpdateQuantityUnknownProduct(t *testing.T) {
	c := New()

	assert.False(t, c.UpdateQuantity(99, 3))
	assert.True(t, c.IsEmpty())
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product(1, 29900, nil), 1))
	require.NoError(t, c.AddItem(product(2, 9900, nil), 1))

	assert.True(t, c.Remove(1))
	assert.Equal(t, 1, c.ItemCount())

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.ItemCount())
}

func TestPricingLines(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product(1, 29900, nil), 2))
	require.NoError(t, c.AddItem(product(2, 9900, nil), 1))

	lines := c.PricingLines()

	require.Len(t, lines, 2)
	assert.Equal(t, int64(29900), lines[0].UnitPrice)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, int64(9900), lines[1].UnitPrice)
}
