package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ErrInvalidProduct is returned for product payloads that fail the
// boundary checks (negative price, unknown status, negative inventory).
var ErrInvalidProduct = errors.New("invalid product")

// Storefront is the public view of a store: the store record, its
// active products and the appearance settings.
type Storefront struct {
	Store    models.Store         `json:"store"`
	Products []models.Product     `json:"products"`
	Settings models.StoreSettings `json:"settings"`
}

// CatalogService serves public storefront lookups and the merchant
// product/settings operations behind the dashboard.
type CatalogService struct {
	repo   store.Repository
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service. redis may be nil;
// caching and view counters are then skipped.
func NewCatalogService(repo store.Repository, redis *redisclient.Client) *CatalogService {
	return &CatalogService{
		repo:   repo,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// StorefrontBySlug resolves a public storefront, preferring the redis
// cache. Unknown slugs surface store.ErrStoreNotFound for the 404
// fallback page. Each successful lookup counts one storefront view.
func (cs *CatalogService) StorefrontBySlug(ctx context.Context, slug string) (*Storefront, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.StorefrontBySlug")
	defer span.End()

	if cs.redis != nil {
		var cached Storefront
		hit, err := cs.redis.GetCachedStorefront(ctx, slug, &cached)
		if err != nil {
			cs.logger.Warn("Storefront cache lookup failed", zap.String("slug", slug), zap.Error(err))
		}
		if hit {
			util.StorefrontCacheHits.WithLabelValues("hit").Inc()
			cs.recordView(ctx, slug)
			return &cached, nil
		}
		util.StorefrontCacheHits.WithLabelValues("miss").Inc()
	}

	st, err := cs.repo.GetStoreBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	products, err := cs.repo.GetActiveProductsByStore(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load storefront products: %w", err)
	}

	settings, err := cs.repo.GetStoreSettings(ctx, st.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load store settings: %w", err)
	}

	sf := &Storefront{Store: *st, Products: products, Settings: *settings}

	if cs.redis != nil {
		if err := cs.redis.CacheStorefront(ctx, slug, sf); err != nil {
			cs.logger.Warn("Failed to cache storefront", zap.String("slug", slug), zap.Error(err))
		}
	}
	cs.recordView(ctx, slug)
	return sf, nil
}

func (cs *CatalogService) recordView(ctx context.Context, slug string) {
	util.StorefrontViewsTotal.WithLabelValues(slug).Inc()
	if cs.redis == nil {
		return
	}
	if err := cs.redis.IncrStorefrontViews(ctx, slug); err != nil {
		cs.logger.Warn("Failed to record storefront view", zap.String("slug", slug), zap.Error(err))
	}
}

// GetStore retrieves a store by ID for dashboard use
func (cs *CatalogService) GetStore(ctx context.Context, storeID int64) (*models.Store, error) {
	return cs.repo.GetStoreByID(ctx, storeID)
}

// ListProducts returns all products of a store, drafts included
func (cs *CatalogService) ListProducts(ctx context.Context, storeID int64) ([]models.Product, error) {
	return cs.repo.GetProductsByStore(ctx, storeID)
}

// CreateProduct validates and persists a new product, then invalidates
// the storefront cache. Shapes are checked once at this boundary.
func (cs *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := cs.checkProduct(p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = models.ProductStatusDraft
	}

	if err := cs.repo.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	cs.logger.Info("Product created",
		zap.Int64("store_id", p.StoreID),
		zap.Int64("product_id", p.ID),
		zap.String("name", p.Name))

	cs.invalidateStorefront(ctx, p.StoreID)
	return nil
}

// UpdateProduct validates and applies a product update
func (cs *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := cs.checkProduct(p); err != nil {
		return err
	}

	if err := cs.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}
	cs.invalidateStorefront(ctx, p.StoreID)
	return nil
}

// DeleteProduct removes a product from the catalog
func (cs *CatalogService) DeleteProduct(ctx context.Context, storeID, productID int64) error {
	p, err := cs.repo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if p.StoreID != storeID {
		return store.ErrProductNotFound
	}

	if err := cs.repo.DeleteProduct(ctx, productID); err != nil {
		return err
	}
	cs.invalidateStorefront(ctx, storeID)
	return nil
}

// GetSettings returns a store's settings
func (cs *CatalogService) GetSettings(ctx context.Context, storeID int64) (*models.StoreSettings, error) {
	return cs.repo.GetStoreSettings(ctx, storeID)
}

// UpdateSettings replaces a store's settings and refreshes the cache
func (cs *CatalogService) UpdateSettings(ctx context.Context, settings *models.StoreSettings) error {
	if err := cs.repo.UpdateStoreSettings(ctx, settings); err != nil {
		return err
	}
	cs.invalidateStorefront(ctx, settings.StoreID)
	return nil
}

func (cs *CatalogService) checkProduct(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.Inventory != nil && *p.Inventory < 0 {
		return fmt.Errorf("%w: inventory must not be negative", ErrInvalidProduct)
	}
	switch p.Status {
	case "", models.ProductStatusActive, models.ProductStatusDraft, models.ProductStatusInactive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, p.Status)
	}
	return nil
}

func (cs *CatalogService) invalidateStorefront(ctx context.Context, storeID int64) {
	if cs.redis == nil {
		return
	}
	st, err := cs.repo.GetStoreByID(ctx, storeID)
	if err != nil {
		return
	}
	if err := cs.redis.InvalidateStorefront(ctx, st.Slug); err != nil {
		cs.logger.Warn("Failed to invalidate storefront cache",
			zap.String("slug", st.Slug), zap.Error(err))
	}
}
