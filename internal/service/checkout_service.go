package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/cart"
	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"
	"storefront-service/internal/validate"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkout session states.
const (
	CheckoutStateEditing    = "editing"
	CheckoutStateSubmitting = "submitting"
	CheckoutStateComplete   = "complete"
	CheckoutStateFailed     = "failed"
)

var (
	// ErrCheckoutNotFound is returned for unknown checkout sessions.
	ErrCheckoutNotFound = errors.New("checkout session not found")

	// ErrEmptyCart rejects a submission with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSessionBusy rejects edits and double submits while a submission
	// is in flight.
	ErrSessionBusy = errors.New("checkout submission in progress")

	// ErrCheckoutComplete rejects operations on a finished session.
	ErrCheckoutComplete = errors.New("checkout already completed")

	// ErrSubmissionFailed is the retryable payment failure. Customer info
	// and the cart survive it.
	ErrSubmissionFailed = errors.New("order submission failed, please try again")

	// ErrPaymentMethodNotOffered rejects payment methods the store has
	// not enabled.
	ErrPaymentMethodNotOffered = errors.New("payment method not offered by this store")
)

// checkoutSession is one buyer's in-flight checkout against a store.
type checkoutSession struct {
	mu       sync.Mutex
	store    *models.Store
	settings *models.StoreSettings
	state    string
	cart     *cart.Cart
	customer *SubmitRequest
	discount *models.Discount
	order    *models.Order
}

// SubmitRequest is the customer block captured by the checkout form.
type SubmitRequest struct {
	Name          string `json:"name" validate:"required,min=2"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"required,min=8"`
	Address       string `json:"address" validate:"required,min=5"`
	City          string `json:"city" validate:"required,min=2"`
	PostalCode    string `json:"postal_code" validate:"required,min=4"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card paypal bank cash"`
}

// CheckoutView is the wire view of a session: state, lines and the
// recomputed totals.
type CheckoutView struct {
	SessionID    string        `json:"session_id"`
	StoreID      int64         `json:"store_id"`
	State        string        `json:"state"`
	Items        []cart.Line   `json:"items"`
	DiscountCode string        `json:"discount_code,omitempty"`
	Quote        pricing.Quote `json:"quote"`
	Order        *models.Order `json:"order,omitempty"`
}

// CheckoutService drives the buyer checkout flow: cart edits, discount
// application, quoting and the retryable order submission.
type CheckoutService struct {
	repo      store.Repository
	discounts *DiscountService
	events    *broker.EventPublisher
	validator *validatorv10.Validate
	logger    *zap.Logger

	rates       pricing.Rates
	failureRate float64
	delay       time.Duration
	rng         *rand.Rand

	mu       sync.Mutex
	sessions map[string]*checkoutSession
}

// NewCheckoutService creates a new checkout service. rates are the
// store-independent defaults; a store's free-shipping threshold from its
// settings overrides the default when set.
func NewCheckoutService(repo store.Repository, discounts *DiscountService, events *broker.EventPublisher, rates pricing.Rates, failureRate float64, delay time.Duration) *CheckoutService {
	return &CheckoutService{
		repo:        repo,
		discounts:   discounts,
		events:      events,
		validator:   validate.New(),
		logger:      util.GetLogger(),
		rates:       rates,
		failureRate: failureRate,
		delay:       delay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sessions:    make(map[string]*checkoutSession),
	}
}

// StartCheckout opens a session against a storefront slug
func (cs *CheckoutService) StartCheckout(ctx context.Context, slug string) (*CheckoutView, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.StartCheckout")
	defer span.End()

	st, err := cs.repo.GetStoreBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	settings, err := cs.repo.GetStoreSettings(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}

	id := uuid.New().String()
	sess := &checkoutSession{
		store:    st,
		settings: settings,
		state:    CheckoutStateEditing,
		cart:     cart.New(),
	}

	cs.mu.Lock()
	cs.sessions[id] = sess
	cs.mu.Unlock()

	return cs.view(id, sess), nil
}

// AddItem adds a product to the session's cart. Out-of-stock products
// are rejected and the cart left untouched.
func (cs *CheckoutService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*CheckoutView, error) {
	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := editable(sess); err != nil {
		return nil, err
	}

	p, err := cs.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.StoreID != sess.store.ID || p.Status != models.ProductStatusActive {
		return nil, store.ErrProductNotFound
	}

	if err := sess.cart.AddItem(*p, quantity); err != nil {
		if errors.Is(err, cart.ErrOutOfStock) {
			util.CartOutOfStockTotal.Inc()
		}
		return nil, err
	}
	return cs.view(sessionID, sess), nil
}

// UpdateItem sets a cart line's quantity; zero removes the line
func (cs *CheckoutService) UpdateItem(ctx context.Context, sessionID string, productID int64, quantity int) (*CheckoutView, error) {
	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := editable(sess); err != nil {
		return nil, err
	}
	if !sess.cart.UpdateQuantity(productID, quantity) {
		return nil, store.ErrProductNotFound
	}
	return cs.view(sessionID, sess), nil
}

// RemoveItem removes a cart line
func (cs *CheckoutService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*CheckoutView, error) {
	return cs.UpdateItem(ctx, sessionID, productID, 0)
}

// ApplyDiscount validates a code against the current cart and attaches
// it to the session. The quote reflects it immediately.
func (cs *CheckoutService) ApplyDiscount(ctx context.Context, sessionID, code string) (*CheckoutView, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.ApplyDiscount")
	defer span.End()

	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := editable(sess); err != nil {
		return nil, err
	}

	subtotal := pricing.Subtotal(sess.cart.PricingLines())
	d, err := cs.discounts.Lookup(ctx, sess.store.ID, code, subtotal, time.Now())
	if err != nil {
		return nil, err
	}
	sess.discount = d
	return cs.view(sessionID, sess), nil
}

// RemoveDiscount detaches the applied code from the session
func (cs *CheckoutService) RemoveDiscount(ctx context.Context, sessionID string) (*CheckoutView, error) {
	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := editable(sess); err != nil {
		return nil, err
	}
	sess.discount = nil
	return cs.view(sessionID, sess), nil
}

// View returns the session's current state and totals
func (cs *CheckoutService) View(ctx context.Context, sessionID string) (*CheckoutView, error) {
	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return cs.view(sessionID, sess), nil
}

// Submit runs the final submission: validate the customer block, move
// to submitting, simulate payment processing and either persist the
// order (complete, cart cleared) or fail retryably (customer info and
// cart kept).
func (cs *CheckoutService) Submit(ctx context.Context, sessionID string, req *SubmitRequest) (*CheckoutView, validate.FieldErrors, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Submit")
	defer span.End()
	start := time.Now()

	sess, err := cs.session(sessionID)
	if err != nil {
		return nil, nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.state {
	case CheckoutStateSubmitting:
		return nil, nil, ErrSessionBusy
	case CheckoutStateComplete:
		return nil, nil, ErrCheckoutComplete
	}
	if sess.cart.IsEmpty() {
		return nil, nil, ErrEmptyCart
	}

	if fieldErrs := validate.Struct(cs.validator, req); fieldErrs != nil {
		return cs.view(sessionID, sess), fieldErrs, nil
	}
	if !offersPaymentMethod(sess.settings, req.PaymentMethod) {
		return nil, nil, ErrPaymentMethodNotOffered
	}

	// Customer info is kept before the simulated processing so a failed
	// attempt can be retried without retyping anything.
	sess.customer = req
	sess.state = CheckoutStateSubmitting

	if cs.delay > 0 {
		time.Sleep(cs.delay)
	}

	if cs.roll() < cs.failureRate {
		sess.state = CheckoutStateFailed
		util.CheckoutFailuresTotal.WithLabelValues("payment").Inc()
		cs.logger.Warn("Checkout submission failed",
			zap.String("session_id", sessionID),
			zap.Int64("store_id", sess.store.ID))
		return nil, nil, ErrSubmissionFailed
	}

	quote := cs.quote(sess)
	order := &models.Order{
		OrderNumber: newOrderNumber(),
		StoreID:     sess.store.ID,
		Customer: models.CustomerInfo{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Address:    req.Address,
			City:       req.City,
			PostalCode: req.PostalCode,
		},
		Subtotal:      quote.Subtotal,
		Discount:      quote.Discount,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		Status:        models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
	}
	if sess.discount != nil {
		order.DiscountCode = sess.discount.Code
	}

	items := make([]models.OrderItem, 0, len(sess.cart.Lines()))
	for _, line := range sess.cart.Lines() {
		items = append(items, models.OrderItem{
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.Product.Price,
		})
	}

	if err := cs.repo.CreateOrder(ctx, order, items); err != nil {
		sess.state = CheckoutStateFailed
		util.CheckoutFailuresTotal.WithLabelValues("storage").Inc()
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	if sess.discount != nil {
		if err := cs.discounts.Redeem(ctx, sess.discount, order.ID, quote.Discount); err != nil {
			cs.logger.Warn("Failed to record discount redemption",
				zap.String("code", sess.discount.Code), zap.Error(err))
		}
	}

	sess.state = CheckoutStateComplete
	sess.order = order
	sess.cart.Clear()
	sess.discount = nil

	util.OrdersPlacedTotal.Inc()
	util.CheckoutProcessingLatency.Observe(time.Since(start).Seconds())
	cs.logger.Info("Order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Int64("store_id", order.StoreID),
		zap.Int64("total", order.Total))

	if cs.events != nil {
		eventItems := make([]models.OrderItemData, 0, len(items))
		for _, it := range items {
			eventItems = append(eventItems, models.OrderItemData{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Quantity:    it.Quantity,
				UnitPrice:   it.UnitPrice,
			})
		}
		event := &models.OrderPlacedEvent{
			BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			StoreID:     order.StoreID,
			Total:       order.Total,
			Items:       eventItems,
		}
		if err := cs.events.PublishOrderPlaced(ctx, event); err != nil {
			cs.logger.Warn("Failed to publish OrderPlaced event", zap.Error(err))
		}
	}

	return cs.view(sessionID, sess), nil, nil
}

// roll draws from the shared rng under the service lock; rand.Rand is
// not safe for concurrent use.
func (cs *CheckoutService) roll() float64 {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.rng.Float64()
}

func (cs *CheckoutService) session(id string) (*checkoutSession, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	sess, ok := cs.sessions[id]
	if !ok {
		return nil, ErrCheckoutNotFound
	}
	return sess, nil
}

// quote recomputes totals from the cart. The store's free-shipping
// threshold overrides the platform default when the merchant set one.
func (cs *CheckoutService) quote(sess *checkoutSession) pricing.Quote {
	rates := cs.rates
	if sess.settings != nil && sess.settings.FreeShippingThreshold > 0 {
		rates.FreeShippingThreshold = sess.settings.FreeShippingThreshold
	}
	return pricing.Compute(sess.cart.PricingLines(), sess.discount, rates)
}

func (cs *CheckoutService) view(id string, sess *checkoutSession) *CheckoutView {
	v := &CheckoutView{
		SessionID: id,
		StoreID:   sess.store.ID,
		State:     sess.state,
		Items:     sess.cart.Lines(),
		Quote:     cs.quote(sess),
		Order:     sess.order,
	}
	if sess.discount != nil {
		v.DiscountCode = sess.discount.Code
	}
	return v
}

func editable(sess *checkoutSession) error {
	switch sess.state {
	case CheckoutStateSubmitting:
		return ErrSessionBusy
	case CheckoutStateComplete:
		return ErrCheckoutComplete
	}
	return nil
}

func offersPaymentMethod(settings *models.StoreSettings, method string) bool {
	if settings == nil || len(settings.PaymentMethods) == 0 {
		return true
	}
	for _, m := range settings.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.New().String()[:8])
}
