package service

import (
	"context"
	"testing"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeTestOrder(t *testing.T, repo store.Repository, storeID int64) *models.Order {
	t.Helper()
	o := &models.Order{
		OrderNumber: "ORD-TEST0001",
		StoreID:     storeID,
		Customer:    models.CustomerInfo{Name: "Test Buyer", Email: "buyer@example.com"},
		Subtotal:    29900,
		Tax:         5382,
		Shipping:    15000,
		Total:       50282,
		Status:      models.OrderStatusPending,
	}
	items := []models.OrderItem{
		{ProductName: "Artisan Sourdough Bread", Quantity: 1, UnitPrice: 29900},
	}
	require.NoError(t, repo.CreateOrder(context.Background(), o, items))
	return o
}

func newOrderFixture(t *testing.T) (*OrderService, store.Repository, int64) {
	t.Helper()
	repo := store.NewMemory()
	require.NoError(t, store.SeedDemo(context.Background(), repo))

	bakery, err := repo.GetStoreBySlug(context.Background(), "demo-bakery")
	require.NoError(t, err)
	return NewOrderService(repo, nil), repo, bakery.ID
}

func TestOrderStatusTransitions(t *testing.T) {
	svc, repo, storeID := newOrderFixture(t)
	ctx := context.Background()

	o := placeTestOrder(t, repo, storeID)

	updated, err := svc.UpdateStatus(ctx, storeID, o.ID, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.Status)

	_, err = svc.UpdateStatus(ctx, storeID, o.ID, "lost")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Orders of another store are invisible.
	_, err = svc.UpdateStatus(ctx, storeID+1, o.ID, models.OrderStatusDelivered)
	assert.ErrorIs(t, err, store.ErrOrderNotFound)
}

func TestGetOrderWithItems(t *testing.T) {
	svc, repo, storeID := newOrderFixture(t)
	ctx := context.Background()

	o := placeTestOrder(t, repo, storeID)

	detail, err := svc.GetOrder(ctx, storeID, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, detail.Order.OrderNumber)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, "Artisan Sourdough Bread", detail.Items[0].ProductName)

	orders, err := svc.ListOrders(ctx, storeID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestAnalyticsStats(t *testing.T) {
	repo := store.NewMemory()
	require.NoError(t, store.SeedDemo(context.Background(), repo))
	bakery, err := repo.GetStoreBySlug(context.Background(), "demo-bakery")
	require.NoError(t, err)

	placeTestOrder(t, repo, bakery.ID)

	svc := NewAnalyticsService(repo, nil)
	stats, err := svc.GetStats(context.Background(), bakery.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50282), stats.TotalRevenue)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.Equal(t, 6, stats.TotalProducts)
	assert.Equal(t, int64(50282), stats.AverageOrderValue)

	// Without redis the live event-derived counters stay at zero.
	assert.Equal(t, int64(0), stats.LiveRevenue)
	assert.Equal(t, int64(0), stats.LiveOrders)
}
