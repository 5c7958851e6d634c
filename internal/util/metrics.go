package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoresCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stores_created_total",
		Help: "Total number of stores launched through onboarding",
	})

	StoreLaunchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "store_launch_failures_total",
		Help: "Total number of failed store launches",
	}, []string{"reason"})

	WizardStepRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wizard_step_rejections_total",
		Help: "Total number of onboarding steps rejected by validation",
	}, []string{"step"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed through checkout",
	})

	CheckoutFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Total number of failed checkout submissions",
	}, []string{"reason"})

	CheckoutProcessingLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_processing_latency_seconds",
		Help:    "Latency of checkout order processing",
		Buckets: prometheus.DefBuckets,
	})

	CartOutOfStockTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_out_of_stock_total",
		Help: "Total number of add-to-cart attempts rejected for stock",
	})

	DiscountRedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discount_redemptions_total",
		Help: "Total number of discount codes applied to orders",
	})

	DiscountRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "discount_rejections_total",
		Help: "Total number of rejected discount code applications",
	}, []string{"reason"})

	StorefrontViewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_views_total",
		Help: "Total number of storefront page views",
	}, []string{"slug"})

	StorefrontCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cache_total",
		Help: "Storefront cache lookups by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
