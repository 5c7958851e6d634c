package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Discount rejection reasons surfaced to the checkout flow.
var (
	ErrDiscountInactive  = errors.New("discount code is not active")
	ErrDiscountNotYet    = errors.New("discount code is not yet valid")
	ErrDiscountExpired   = errors.New("discount code has expired")
	ErrDiscountMinOrder  = errors.New("order total below discount minimum")
	ErrDiscountExhausted = errors.New("discount code has reached its use limit")
	ErrInvalidDiscount   = errors.New("invalid discount")
)

// DiscountService owns the discount code lifecycle: merchant CRUD plus
// the eligibility and redemption checks used during checkout.
type DiscountService struct {
	repo   store.Repository
	redis  *redisclient.Client
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewDiscountService creates a new discount service. redis and events
// may be nil.
func NewDiscountService(repo store.Repository, redis *redisclient.Client, events *broker.EventPublisher) *DiscountService {
	return &DiscountService{
		repo:   repo,
		redis:  redis,
		events: events,
		logger: util.GetLogger(),
	}
}

// Create validates and stores a new discount code. Codes are stored
// upper-cased; lookups are case-insensitive as a result.
func (ds *DiscountService) Create(ctx context.Context, d *models.Discount) error {
	ctx, span := util.StartSpan(ctx, "DiscountService.Create")
	defer span.End()

	d.Code = strings.ToUpper(strings.TrimSpace(d.Code))
	if d.Code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidDiscount)
	}
	if strings.ContainsAny(d.Code, " \t") {
		return fmt.Errorf("%w: code must not contain spaces", ErrInvalidDiscount)
	}

	switch d.Type {
	case models.DiscountTypePercentage:
		if d.Value <= 0 || d.Value > 100 {
			return fmt.Errorf("%w: percentage value must be between 1 and 100", ErrInvalidDiscount)
		}
	case models.DiscountTypeFixed:
		if d.Value <= 0 {
			return fmt.Errorf("%w: fixed amount must be positive", ErrInvalidDiscount)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDiscount, d.Type)
	}

	if d.MinOrderAmount < 0 || d.MaxUses < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidDiscount)
	}
	if d.EndDate != nil && d.EndDate.Before(d.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidDiscount)
	}
	if d.StartDate.IsZero() {
		d.StartDate = time.Now()
	}
	d.Enabled = true

	if err := ds.repo.CreateDiscount(ctx, d); err != nil {
		return err
	}

	ds.logger.Info("Discount created",
		zap.Int64("store_id", d.StoreID),
		zap.String("code", d.Code),
		zap.String("type", d.Type),
		zap.Int64("value", d.Value))
	return nil
}

// List returns all discount codes of a store
func (ds *DiscountService) List(ctx context.Context, storeID int64) ([]models.Discount, error) {
	return ds.repo.GetDiscountsByStore(ctx, storeID)
}

// SetEnabled toggles a discount code on or off
func (ds *DiscountService) SetEnabled(ctx context.Context, storeID int64, code string, enabled bool) error {
	return ds.repo.SetDiscountEnabled(ctx, storeID, strings.ToUpper(code), enabled)
}

// Delete removes a discount code
func (ds *DiscountService) Delete(ctx context.Context, storeID int64, code string) error {
	return ds.repo.DeleteDiscount(ctx, storeID, strings.ToUpper(code))
}

// Lookup resolves a code for a cart and checks every eligibility rule:
// the code must exist, be enabled, be inside its date window, not be
// exhausted and the cart subtotal must meet the minimum. The returned
// discount is not yet counted as used; Redeem does that at order time.
func (ds *DiscountService) Lookup(ctx context.Context, storeID int64, code string, subtotal int64, now time.Time) (*models.Discount, error) {
	d, err := ds.repo.GetDiscountByCode(ctx, storeID, strings.ToUpper(code))
	if err != nil {
		return nil, err
	}

	var reason error
	switch {
	case !d.Enabled:
		reason = ErrDiscountInactive
	case now.Before(d.StartDate):
		reason = ErrDiscountNotYet
	case d.EndDate != nil && now.After(*d.EndDate):
		reason = ErrDiscountExpired
	case d.MaxUses > 0 && d.UsedCount >= d.MaxUses:
		reason = ErrDiscountExhausted
	case subtotal < d.MinOrderAmount:
		reason = ErrDiscountMinOrder
	}
	if reason != nil {
		util.DiscountRejectionsTotal.WithLabelValues(rejectionLabel(reason)).Inc()
		return nil, reason
	}
	return d, nil
}

// Redeem counts one use of a code against a placed order. The redis
// script enforces the use limit atomically across instances; the
// repository counter is the durable record.
func (ds *DiscountService) Redeem(ctx context.Context, d *models.Discount, orderID, amount int64) error {
	ctx, span := util.StartSpan(ctx, "DiscountService.Redeem")
	defer span.End()

	if ds.redis != nil {
		allowed, err := ds.redis.RedeemDiscount(ctx, d.StoreID, d.Code, d.MaxUses)
		if err != nil {
			ds.logger.Warn("Redis discount redemption check failed", zap.String("code", d.Code), zap.Error(err))
		} else if !allowed {
			util.DiscountRejectionsTotal.WithLabelValues("exhausted").Inc()
			return ErrDiscountExhausted
		}
	}

	if err := ds.repo.IncrementDiscountUse(ctx, d.StoreID, d.Code); err != nil {
		return fmt.Errorf("failed to record discount use: %w", err)
	}
	util.DiscountRedemptionsTotal.Inc()

	if ds.events != nil {
		event := &models.DiscountRedeemedEvent{
			BaseEvent: newBaseEvent(models.EventTypeDiscountRedeemed),
			StoreID:   d.StoreID,
			Code:      d.Code,
			OrderID:   orderID,
			Amount:    amount,
		}
		if err := ds.events.PublishDiscountRedeemed(ctx, event); err != nil {
			ds.logger.Warn("Failed to publish DiscountRedeemed event", zap.Error(err))
		}
	}
	return nil
}

func rejectionLabel(reason error) string {
	switch {
	case errors.Is(reason, ErrDiscountInactive):
		return "inactive"
	case errors.Is(reason, ErrDiscountNotYet):
		return "not_started"
	case errors.Is(reason, ErrDiscountExpired):
		return "expired"
	case errors.Is(reason, ErrDiscountExhausted):
		return "exhausted"
	case errors.Is(reason, ErrDiscountMinOrder):
		return "min_order"
	}
	return "other"
}
