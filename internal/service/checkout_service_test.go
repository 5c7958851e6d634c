package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRates = pricing.Rates{
	TaxRateBps:            1800,
	FlatShippingFee:       15000,
	FreeShippingThreshold: 100000,
}

type checkoutFixture struct {
	svc      *CheckoutService
	repo     *store.Memory
	products map[string]models.Product
}

func newCheckoutFixture(t *testing.T, failureRate float64) *checkoutFixture {
	t.Helper()
	repo := store.NewMemory()
	require.NoError(t, store.SeedDemo(context.Background(), repo))

	discounts := NewDiscountService(repo, nil, nil)
	svc := NewCheckoutService(repo, discounts, nil, testRates, failureRate, 0)
	svc.rng = rand.New(rand.NewSource(42))

	bakery, err := repo.GetStoreBySlug(context.Background(), "demo-bakery")
	require.NoError(t, err)
	products, err := repo.GetActiveProductsByStore(context.Background(), bakery.ID)
	require.NoError(t, err)

	byName := make(map[string]models.Product, len(products))
	for _, p := range products {
		byName[p.Name] = p
	}
	return &checkoutFixture{svc: svc, repo: repo, products: byName}
}

func validSubmit() *SubmitRequest {
	return &SubmitRequest{
		Name:          "Marko Markovski",
		Email:         "marko@example.com",
		Phone:         "+38970999888",
		Address:       "Ilindenska 12",
		City:          "Skopje",
		PostalCode:    "1000",
		PaymentMethod: "card",
	}
}

func TestCheckoutQuoteMatchesPricing(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	assert.Equal(t, CheckoutStateEditing, view.State)

	bread := f.products["Artisan Sourdough Bread"]
	view, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	// 299 denars: 18% tax and flat shipping below the threshold.
	assert.Equal(t, int64(29900), view.Quote.Subtotal)
	assert.Equal(t, int64(5382), view.Quote.Tax)
	assert.Equal(t, int64(15000), view.Quote.Shipping)
	assert.Equal(t, int64(50282), view.Quote.Total)
}

func TestCheckoutFreeShippingOverThreshold(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)

	pie := f.products["Apple Pie"]
	view, err = f.svc.AddItem(ctx, view.SessionID, pie.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(119800), view.Quote.Subtotal)
	assert.Equal(t, int64(0), view.Quote.Shipping)
}

func TestCheckoutUnknownStore(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	_, err := f.svc.StartCheckout(context.Background(), "no-such-store")
	assert.ErrorIs(t, err, store.ErrStoreNotFound)
}

func TestCheckoutAddOutOfStockRejected(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	bakery, err := f.repo.GetStoreBySlug(ctx, "demo-bakery")
	require.NoError(t, err)
	zero := 0
	soldOut := &models.Product{
		StoreID:   bakery.ID,
		SKU:       "BAK-999",
		Name:      "Sold Out Special",
		Price:     9900,
		Inventory: &zero,
		Status:    models.ProductStatusActive,
	}
	require.NoError(t, f.repo.CreateProduct(ctx, soldOut))

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, view.SessionID, soldOut.ID, 1)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	view, err = f.svc.View(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCheckoutZeroQuantityRemovesLine(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)

	bagels := f.products["Fresh Bagels"]
	view, err = f.svc.AddItem(ctx, view.SessionID, bagels.ID, 3)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	view, err = f.svc.UpdateItem(ctx, view.SessionID, bagels.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, int64(0), view.Quote.Subtotal)
}

func TestCheckoutSubmitEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)

	_, _, err = f.svc.Submit(ctx, view.SessionID, validSubmit())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCheckoutSubmitValidatesCustomer(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	bread := f.products["Artisan Sourdough Bread"]
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	req := validSubmit()
	req.Name = "M"
	req.Email = "not-an-email"

	after, fieldErrs, err := f.svc.Submit(ctx, view.SessionID, req)
	require.NoError(t, err)
	require.NotNil(t, fieldErrs)
	assert.Equal(t, "must be at least 2 characters", fieldErrs["name"])
	assert.Equal(t, "must be a valid email address", fieldErrs["email"])
	assert.Equal(t, CheckoutStateEditing, after.State)
}

func TestCheckoutSubmitFailureKeepsEverything(t *testing.T) {
	f := newCheckoutFixture(t, 1.0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	bread := f.products["Artisan Sourdough Bread"]
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	_, _, err = f.svc.Submit(ctx, view.SessionID, validSubmit())
	require.ErrorIs(t, err, ErrSubmissionFailed)

	after, err := f.svc.View(ctx, view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, CheckoutStateFailed, after.State)
	assert.Len(t, after.Items, 1)

	// Retry succeeds without re-adding anything.
	f.svc.failureRate = 0
	after, fieldErrs, err := f.svc.Submit(ctx, view.SessionID, validSubmit())
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	assert.Equal(t, CheckoutStateComplete, after.State)
}

func TestCheckoutSubmitPlacesOrder(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	bread := f.products["Artisan Sourdough Bread"]
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	after, fieldErrs, err := f.svc.Submit(ctx, view.SessionID, validSubmit())
	require.NoError(t, err)
	require.Nil(t, fieldErrs)

	assert.Equal(t, CheckoutStateComplete, after.State)
	assert.Empty(t, after.Items)
	require.NotNil(t, after.Order)
	assert.Equal(t, int64(50282), after.Order.Total)
	assert.Equal(t, models.OrderStatusPending, after.Order.Status)

	persisted, err := f.repo.GetOrderByID(ctx, after.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marko Markovski", persisted.Customer.Name)

	items, err := f.repo.GetOrderItems(ctx, after.Order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Artisan Sourdough Bread", items[0].ProductName)
	assert.Equal(t, int64(29900), items[0].UnitPrice)

	// Inventory is display-only; placing an order does not decrement it.
	p, err := f.repo.GetProductByID(ctx, bread.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Inventory)
	assert.Equal(t, 15, *p.Inventory)

	// The completed session rejects further edits and submissions.
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	assert.ErrorIs(t, err, ErrCheckoutComplete)
	_, _, err = f.svc.Submit(ctx, view.SessionID, validSubmit())
	assert.ErrorIs(t, err, ErrCheckoutComplete)
}

func TestCheckoutSubmitWithDiscount(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	bakery, err := f.repo.GetStoreBySlug(ctx, "demo-bakery")
	require.NoError(t, err)
	discounts := NewDiscountService(f.repo, nil, nil)
	require.NoError(t, discounts.Create(ctx, &models.Discount{
		StoreID:   bakery.ID,
		Code:      "save10",
		Type:      models.DiscountTypePercentage,
		Value:     10,
		StartDate: time.Now().Add(-time.Hour),
	}))

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	bread := f.products["Artisan Sourdough Bread"]
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	// Codes are case-insensitive.
	view, err = f.svc.ApplyDiscount(ctx, view.SessionID, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", view.DiscountCode)
	assert.Equal(t, int64(2990), view.Quote.Discount)
	// Tax applies to the discounted subtotal.
	assert.Equal(t, int64(4844), view.Quote.Tax)

	after, fieldErrs, err := f.svc.Submit(ctx, view.SessionID, validSubmit())
	require.NoError(t, err)
	require.Nil(t, fieldErrs)
	assert.Equal(t, "SAVE10", after.Order.DiscountCode)
	assert.Equal(t, int64(2990), after.Order.Discount)

	d, err := f.repo.GetDiscountByCode(ctx, bakery.ID, "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, 1, d.UsedCount)
}

func TestCheckoutRejectsUnofferedPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)
	bread := f.products["Artisan Sourdough Bread"]
	_, err = f.svc.AddItem(ctx, view.SessionID, bread.ID, 1)
	require.NoError(t, err)

	req := validSubmit()
	req.PaymentMethod = "paypal" // bakery only offers card and cash

	_, _, err = f.svc.Submit(ctx, view.SessionID, req)
	assert.ErrorIs(t, err, ErrPaymentMethodNotOffered)
}

func TestCheckoutProductFromOtherStoreRejected(t *testing.T) {
	f := newCheckoutFixture(t, 0)
	ctx := context.Background()

	techStore, err := f.repo.GetStoreBySlug(ctx, "tech-store")
	require.NoError(t, err)
	techProducts, err := f.repo.GetActiveProductsByStore(ctx, techStore.ID)
	require.NoError(t, err)
	require.NotEmpty(t, techProducts)

	view, err := f.svc.StartCheckout(ctx, "demo-bakery")
	require.NoError(t, err)

	_, err = f.svc.AddItem(ctx, view.SessionID, techProducts[0].ID, 1)
	assert.ErrorIs(t, err, store.ErrProductNotFound)
}
