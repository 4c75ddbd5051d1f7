package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const productCacheName = "products"

// ProductCatalog is a read-through cache of product display snapshots. It
// is used for cart and wishlist views only, never for pricing an order.
type ProductCatalog struct {
	products repositories.ProductReader
	store    cache.Store
	ttl      time.Duration
}

func NewProductCatalog(products repositories.ProductReader, store cache.Store, ttl time.Duration) *ProductCatalog {
	return &ProductCatalog{products: products, store: store, ttl: ttl}
}

func snapshotKey(id primitive.ObjectID) string { return "product:" + id.Hex() }

// Snapshot returns one product's display snapshot.
func (c *ProductCatalog) Snapshot(ctx context.Context, id primitive.ObjectID) (models.ProductSnapshot, error) {
	return cache.Remember(ctx, c.store, productCacheName, snapshotKey(id), c.ttl,
		func(ctx context.Context) (models.ProductSnapshot, error) {
			p, err := c.products.FindByID(ctx, id)
			if err != nil {
				return models.ProductSnapshot{}, err
			}
			return p.Snapshot(), nil
		})
}

// Snapshots resolves ids in one store round trip for the cache misses.
// Products that no longer exist are absent from the result.
func (c *ProductCatalog) Snapshots(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.ProductSnapshot, error) {
	ids = collection.Unique(ids)
	out := make(map[primitive.ObjectID]models.ProductSnapshot, len(ids))

	var misses []primitive.ObjectID
	for _, id := range ids {
		var s models.ProductSnapshot
		if ok, err := c.store.Get(ctx, snapshotKey(id), &s); err == nil && ok {
			out[id] = s
			continue
		}
		misses = append(misses, id)
	}
	if len(misses) == 0 {
		return out, nil
	}

	found, err := c.products.FindByIDs(ctx, misses)
	if err != nil {
		return nil, err
	}
	for id, p := range found {
		s := p.Snapshot()
		out[id] = s
		if err := c.store.Set(ctx, snapshotKey(id), s, c.ttl); err != nil {
			logger.WithCtx(ctx).Warn("product cache set failed", "product_id", id.Hex(), "error", err)
		}
	}
	return out, nil
}

// Invalidate drops a product from the cache after a write.
func (c *ProductCatalog) Invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := c.store.Del(ctx, snapshotKey(id)); err != nil {
		logger.WithCtx(ctx).Warn("product cache invalidate failed", "product_id", id.Hex(), "error", err)
	}
}
