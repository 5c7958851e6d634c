package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// AnalyticsService assembles the dashboard overview from the durable
// order data and the redis counters the worker maintains.
type AnalyticsService struct {
	repo   store.Repository
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewAnalyticsService creates a new analytics service. redis may be nil;
// view counts then stay at zero.
func NewAnalyticsService(repo store.Repository, redis *redisclient.Client) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// GetStats returns a store's analytics overview
func (as *AnalyticsService) GetStats(ctx context.Context, storeID int64) (*models.StoreStats, error) {
	ctx, span := util.StartSpan(ctx, "AnalyticsService.GetStats")
	defer span.End()

	stats, err := as.repo.GetStoreStats(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if as.redis != nil {
		st, err := as.repo.GetStoreByID(ctx, storeID)
		if err == nil {
			views, err := as.redis.GetStorefrontViews(ctx, st.Slug)
			if err != nil {
				as.logger.Warn("Failed to load storefront views", zap.String("slug", st.Slug), zap.Error(err))
			} else {
				stats.StorefrontViews = views
			}
		}

		revenue, orders, err := as.redis.GetSalesCounters(ctx, storeID)
		if err != nil {
			as.logger.Warn("Failed to load sales counters", zap.Int64("store_id", storeID), zap.Error(err))
		} else {
			stats.LiveRevenue = revenue
			stats.LiveOrders = orders
		}
	}
	return stats, nil
}
