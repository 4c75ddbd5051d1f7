package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// CartLine is a cart entry joined with the product it references.
type CartLine struct {
	ProductID primitive.ObjectID      `json:"product_id"`
	Quantity  int                     `json:"quantity"`
	Product   *models.ProductSnapshot `json:"product"`
	Missing   bool                    `json:"missing,omitempty"`
}

type CartView struct {
	Items   []CartLine `json:"items"`
	Version int64      `json:"version"`
}

type CartService struct {
	carts   repositories.CartRepository
	catalog *ProductCatalog
}

func NewCartService(carts repositories.CartRepository, catalog *ProductCatalog) *CartService {
	return &CartService{carts: carts, catalog: catalog}
}

func (s *CartService) View(ctx context.Context, userID primitive.ObjectID) (*CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.join(ctx, c)
}

// Add increments the entry for productID by qty, creating it if absent.
// The product's existence is checked only at order confirmation.
func (s *CartService) Add(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*CartView, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	c, err := s.carts.AddItem(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	metrics.CartMutations.WithLabelValues("add").Inc()
	return s.join(ctx, c)
}

func (s *CartService) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*CartView, error) {
	if err := checkQuantity(qty); err != nil {
		return nil, err
	}
	c, err := s.carts.SetQuantity(ctx, userID, productID, qty)
	if err != nil {
		return nil, err
	}
	metrics.CartMutations.WithLabelValues("set").Inc()
	return s.join(ctx, c)
}

// Remove deletes the entry for productID. Removing an absent entry is not
// an error.
func (s *CartService) Remove(ctx context.Context, userID, productID primitive.ObjectID) (*CartView, error) {
	c, err := s.carts.RemoveItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	metrics.CartMutations.WithLabelValues("remove").Inc()
	return s.join(ctx, c)
}

func checkQuantity(qty int) error {
	if qty < 1 {
		return apperr.Invalid(apperr.CodeInvalidQuantity, "Quantity must be a positive integer")
	}
	return nil
}

func (s *CartService) join(ctx context.Context, c *models.Cart) (*CartView, error) {
	ids := collection.Map(c.Items, func(it models.CartItem) primitive.ObjectID { return it.ProductID })
	snaps, err := s.catalog.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: make([]CartLine, 0, len(c.Items)), Version: c.Version}
	for _, it := range c.Items {
		line := CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
		if snap, ok := snaps[it.ProductID]; ok {
			line.Product = &snap
		} else {
			line.Missing = true
		}
		view.Items = append(view.Items, line)
	}
	return view, nil
}
