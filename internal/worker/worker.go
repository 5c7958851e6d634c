package worker

import (
	"context"
	"sync"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// AnalyticsWorker consumes order events and folds them into the redis
// sales counters the dashboard reads. It runs alongside the API server
// and stops with it.
type AnalyticsWorker struct {
	consumer *broker.Consumer
	redis    *redisclient.Client
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAnalyticsWorker creates a new analytics worker
func NewAnalyticsWorker(consumer *broker.Consumer, redis *redisclient.Client) *AnalyticsWorker {
	return &AnalyticsWorker{
		consumer: consumer,
		redis:    redis,
		logger:   util.GetLogger(),
	}
}

// Start begins consuming order events in the background
func (w *AnalyticsWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	handler := broker.NewEventHandler()
	handler.OnOrderPlaced(w.handleOrderPlaced)
	handler.OnOrderStatusChanged(w.handleOrderStatusChanged)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.StartConsuming(ctx, handler.HandleMessage); err != nil && ctx.Err() == nil {
			w.logger.Error("Analytics consumer stopped", zap.Error(err))
		}
	}()

	w.logger.Info("Analytics worker started")
}

// Stop cancels consumption and waits for the loop to drain
func (w *AnalyticsWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("Analytics worker stopped")
}

func (w *AnalyticsWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	w.logger.Info("Processing OrderPlaced event",
		zap.String("event_id", event.EventID),
		zap.Int64("store_id", event.StoreID),
		zap.String("order_number", event.OrderNumber),
		zap.Int64("total", event.Total))

	if w.redis == nil {
		return nil
	}
	if err := w.redis.IncrSalesCounters(ctx, event.StoreID, event.Total); err != nil {
		w.logger.Error("Failed to update sales counters",
			zap.Int64("store_id", event.StoreID), zap.Error(err))
		return err
	}
	return nil
}

func (w *AnalyticsWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Processing OrderStatusChanged event",
		zap.String("event_id", event.EventID),
		zap.Int64("order_id", event.OrderID),
		zap.String("old_status", event.OldStatus),
		zap.String("new_status", event.NewStatus))

	// Cancelled orders are excluded from revenue at query time, so the
	// running counters are left as placed.
	return nil
}
