package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidStatus is returned for unknown order statuses.
var ErrInvalidStatus = errors.New("invalid order status")

// OrderService serves the merchant-facing order operations: listing,
// detail and status transitions.
type OrderService struct {
	repo   store.Repository
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewOrderService creates a new order service. events may be nil.
func NewOrderService(repo store.Repository, events *broker.EventPublisher) *OrderService {
	return &OrderService{
		repo:   repo,
		events: events,
		logger: util.GetLogger(),
	}
}

// OrderDetail is an order with its line items.
type OrderDetail struct {
	Order models.Order       `json:"order"`
	Items []models.OrderItem `json:"items"`
}

// ListOrders returns a store's orders, newest first
func (osvc *OrderService) ListOrders(ctx context.Context, storeID int64) ([]models.Order, error) {
	return osvc.repo.GetOrdersByStore(ctx, storeID)
}

// GetOrder returns one order with its items, scoped to the store
func (osvc *OrderService) GetOrder(ctx context.Context, storeID, orderID int64) (*OrderDetail, error) {
	o, err := osvc.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, store.ErrOrderNotFound
	}

	items, err := osvc.repo.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &OrderDetail{Order: *o, Items: items}, nil
}

// UpdateStatus moves an order to a new status and publishes the change
func (osvc *OrderService) UpdateStatus(ctx context.Context, storeID, orderID int64, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !models.ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	o, err := osvc.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.StoreID != storeID {
		return nil, store.ErrOrderNotFound
	}
	oldStatus := o.Status
	if oldStatus == status {
		return o, nil
	}

	if err := osvc.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	o.Status = status

	osvc.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("old_status", oldStatus),
		zap.String("new_status", status))

	if osvc.events != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: newBaseEvent(models.EventTypeOrderStatusChanged),
			OrderID:   orderID,
			StoreID:   storeID,
			OldStatus: oldStatus,
			NewStatus: status,
		}
		if err := osvc.events.PublishOrderStatusChanged(ctx, event); err != nil {
			osvc.logger.Warn("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return o, nil
}
