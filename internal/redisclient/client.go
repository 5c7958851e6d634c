package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/redeem_discount.lua
var redeemDiscountScript string

// storefrontCacheTTL bounds how stale a cached storefront can get after
// a merchant edits the catalog.
const storefrontCacheTTL = 5 * time.Minute

type Client struct {
	rdb          *redis.Client
	redeemScript *redis.Script
}

// NewClient creates a new Redis client with the redemption script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		redeemScript: redis.NewScript(redeemDiscountScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheStorefront stores a rendered storefront payload under its slug
func (c *Client) CacheStorefront(ctx context.Context, slug string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal storefront: %w", err)
	}
	return c.rdb.Set(ctx, fmt.Sprintf("storefront:%s", slug), data, storefrontCacheTTL).Err()
}

// GetCachedStorefront loads a cached storefront into out.
// Returns false on a cache miss.
func (c *Client) GetCachedStorefront(ctx context.Context, slug string, out interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, fmt.Sprintf("storefront:%s", slug)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached storefront: %w", err)
	}
	return true, nil
}

// InvalidateStorefront drops the cached storefront for a slug
func (c *Client) InvalidateStorefront(ctx context.Context, slug string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("storefront:%s", slug)).Err()
}

// ReserveSlug claims a store slug for the duration of an onboarding
// launch so two concurrent launches cannot race the same slug.
func (c *Client) ReserveSlug(ctx context.Context, slug string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("slug:%s", slug), "1", ttl).Result()
}

// ReleaseSlug frees a reserved slug after a failed launch
func (c *Client) ReleaseSlug(ctx context.Context, slug string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("slug:%s", slug)).Err()
}

// RedeemDiscount atomically counts one redemption of a discount code.
// Returns false when the code's use limit is exhausted.
func (c *Client) RedeemDiscount(ctx context.Context, storeID int64, code string, maxUses int) (bool, error) {
	key := fmt.Sprintf("discount:uses:%d:%s", storeID, code)

	result, err := c.redeemScript.Run(ctx, c.rdb, []string{key}, maxUses).Result()
	if err != nil {
		return false, fmt.Errorf("redeem discount script failed: %w", err)
	}

	allowed, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected script result type")
	}
	return allowed == 1, nil
}

// IncrStorefrontViews counts one storefront page view
func (c *Client) IncrStorefrontViews(ctx context.Context, slug string) error {
	return c.rdb.Incr(ctx, fmt.Sprintf("views:%s", slug)).Err()
}

// GetStorefrontViews returns the view counter for a slug
func (c *Client) GetStorefrontViews(ctx context.Context, slug string) (int64, error) {
	n, err := c.rdb.Get(ctx, fmt.Sprintf("views:%s", slug)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// IncrSalesCounters folds one placed order into the per-store running
// totals the analytics worker maintains.
func (c *Client) IncrSalesCounters(ctx context.Context, storeID int64, total int64) error {
	pipe := c.rdb.Pipeline()
	pipe.IncrBy(ctx, fmt.Sprintf("sales:revenue:%d", storeID), total)
	pipe.Incr(ctx, fmt.Sprintf("sales:orders:%d", storeID))

	_, err := pipe.Exec(ctx)
	return err
}

// GetSalesCounters returns the running totals for a store
func (c *Client) GetSalesCounters(ctx context.Context, storeID int64) (revenue int64, orders int64, err error) {
	revenue, err = c.rdb.Get(ctx, fmt.Sprintf("sales:revenue:%d", storeID)).Int64()
	if err == redis.Nil {
		revenue, err = 0, nil
	}
	if err != nil {
		return 0, 0, err
	}

	orders, err = c.rdb.Get(ctx, fmt.Sprintf("sales:orders:%d", storeID)).Int64()
	if err == redis.Nil {
		orders, err = 0, nil
	}
	return revenue, orders, err
}
