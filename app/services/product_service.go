package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

type ProductService struct {
	products repositories.ProductRepository
	catalog  *ProductCatalog
	repairer *RatingRepairer
}

func NewProductService(products repositories.ProductRepository, catalog *ProductCatalog, repairer *RatingRepairer) *ProductService {
	return &ProductService{products: products, catalog: catalog, repairer: repairer}
}

func (s *ProductService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	return s.products.List(ctx, f)
}

// Get returns the product with its reviews. A cached average that has
// drifted from the counters is repaired on the way out.
func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := models.RatingSnapshot{
		ProductID:     p.ID,
		TotalRatings:  p.TotalRatings,
		ReviewCount:   p.ReviewCount,
		AverageRating: p.AverageRating,
	}
	if Drifted(snap) {
		if _, err := s.repairer.repairSnapshot(ctx, snap, RepairOnRead); err != nil {
			logger.WithCtx(ctx).Warn("lazy rating repair failed", "product_id", id.Hex(), "error", err)
		}
		p.AverageRating = RoundAverage(p.TotalRatings, p.ReviewCount)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, actor Actor, in models.ProductInput) (*models.Product, error) {
	if actor.Role != models.RoleVendor && !actor.IsAdmin() {
		return nil, apperr.Unauthorized(apperr.CodeForbiddenRole, "Only vendors and admins can create products")
	}
	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Vendor:      actor.UserID,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, actor Actor, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	if upd.Empty() {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "No updatable fields supplied")
	}
	if err := s.authorizeOwner(ctx, actor, id); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	s.catalog.Invalidate(ctx, id)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if err := s.authorizeOwner(ctx, actor, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.catalog.Invalidate(ctx, id)
	return nil
}

// authorizeOwner allows admins and the vendor that owns the product.
func (s *ProductService) authorizeOwner(ctx context.Context, actor Actor, id primitive.ObjectID) error {
	if actor.IsAdmin() {
		return nil
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleVendor || p.Vendor != actor.UserID {
		return apperr.Unauthorized(apperr.CodeForbiddenRole, "Only the owning vendor or an admin can change this product")
	}
	return nil
}
