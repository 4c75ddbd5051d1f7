package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
)

type WishlistEntry struct {
	ProductID primitive.ObjectID      `json:"product_id"`
	Product   *models.ProductSnapshot `json:"product"`
	Missing   bool                    `json:"missing,omitempty"`
}

type WishlistService struct {
	wishlists repositories.WishlistRepository
	products  repositories.ProductReader
	catalog   *ProductCatalog
}

func NewWishlistService(wishlists repositories.WishlistRepository, products repositories.ProductReader, catalog *ProductCatalog) *WishlistService {
	return &WishlistService{wishlists: wishlists, products: products, catalog: catalog}
}

func (s *WishlistService) View(ctx context.Context, userID primitive.ObjectID) ([]WishlistEntry, error) {
	ids, err := s.wishlists.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.catalog.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]WishlistEntry, 0, len(ids))
	for _, id := range ids {
		e := WishlistEntry{ProductID: id}
		if snap, ok := snaps[id]; ok {
			e.Product = &snap
		} else {
			e.Missing = true
		}
		out = append(out, e)
	}
	return out, nil
}

// Add requires the product to exist and rejects duplicates with
// ALREADY_IN_WISHLIST.
func (s *WishlistService) Add(ctx context.Context, userID, productID primitive.ObjectID) ([]WishlistEntry, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	if err := s.wishlists.Add(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID primitive.ObjectID) ([]WishlistEntry, error) {
	if err := s.wishlists.Remove(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.View(ctx, userID)
}
