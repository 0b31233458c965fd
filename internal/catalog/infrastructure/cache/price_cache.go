// Package cache puts a Redis read-through cache in front of catalog price lookups.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/xl-c111/Flora-sub001/internal/catalog/domain"
)

const keyPrefix = "flora:price:"

// DefaultTTL keeps cached prices short-lived so catalog edits show up quickly.
const DefaultTTL = time.Minute

// CachedPriceLookup implements domain.PriceLookup over another lookup.
// Redis failures degrade to the underlying lookup rather than failing the call.
type CachedPriceLookup struct {
	next   domain.PriceLookup
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedPriceLookup wraps next. A non-positive ttl uses DefaultTTL.
func NewCachedPriceLookup(next domain.PriceLookup, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedPriceLookup {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedPriceLookup{next: next, client: client, ttl: ttl, logger: logger}
}

func key(id uuid.UUID) string { return keyPrefix + id.String() }

func (c *CachedPriceLookup) PriceOf(ctx context.Context, productID uuid.UUID) (int64, error) {
	raw, err := c.client.Get(ctx, key(productID)).Result()
	switch {
	case err == nil:
		if price, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			return price, nil
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("price cache read failed", "product_id", productID, "error", err)
	}

	price, err := c.next.PriceOf(ctx, productID)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key(productID), price, c.ttl).Err(); err != nil {
		c.logger.Warn("price cache write failed", "product_id", productID, "error", err)
	}
	return price, nil
}

func (c *CachedPriceLookup) PricesOf(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	prices := make(map[uuid.UUID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return prices, nil
	}

	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = key(id)
	}
	cached, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("price cache read failed", "products", len(productIDs), "error", err)
		cached = nil
	}

	var misses []uuid.UUID
	for i, id := range productIDs {
		if i < len(cached) {
			if s, ok := cached[i].(string); ok {
				if price, perr := strconv.ParseInt(s, 10, 64); perr == nil {
					prices[id] = price
					continue
				}
			}
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return prices, nil
	}

	fetched, err := c.next.PricesOf(ctx, misses)
	if err != nil {
		return nil, err
	}
	pipe := c.client.Pipeline()
	for id, price := range fetched {
		prices[id] = price
		pipe.Set(ctx, key(id), price, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("price cache write failed", "products", len(fetched), "error", err)
	}
	return prices, nil
}

// Invalidate drops cached prices, for use after a catalog update.
func (c *CachedPriceLookup) Invalidate(ctx context.Context, productIDs ...uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}
