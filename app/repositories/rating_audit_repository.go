package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

// RatingAuditRepository records average-rating repairs in the ops database.
type RatingAuditRepository interface {
	Record(ctx context.Context, entry *models.RatingRepair) error
	Recent(ctx context.Context, productID primitive.ObjectID, limit int) ([]models.RatingRepair, error)
}

type gormRatingAuditRepository struct {
	db *gorm.DB
}

func NewRatingAuditRepository(db *gorm.DB) RatingAuditRepository {
	return &gormRatingAuditRepository{db: db}
}

func (r *gormRatingAuditRepository) Record(ctx context.Context, entry *models.RatingRepair) error {
	return apperr.Store(r.db.WithContext(ctx).Create(entry).Error, "record rating repair")
}

func (r *gormRatingAuditRepository) Recent(ctx context.Context, productID primitive.ObjectID, limit int) ([]models.RatingRepair, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.RatingRepair
	q := r.db.WithContext(ctx).Order("repaired_at DESC").Order("id DESC").Limit(limit)
	if !productID.IsZero() {
		q = q.Where("product_id = ?", productID.Hex())
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Store(err, "list rating repairs")
	}
	return rows, nil
}
