package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is embedded in its Product and identified by ID within it.
type Review struct {
	ID        primitive.ObjectID `bson:"_id"        json:"id"`
	UserID    primitive.ObjectID `bson:"user"       json:"user_id"`
	Rating    int                `bson:"rating"     json:"rating"`
	Comment   string             `bson:"comment"    json:"comment"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// Product carries the running rating accumulators. AverageRating is derived
// from TotalRatings and ReviewCount and is never written on its own.
type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"  json:"id"`
	Name          string             `bson:"name"           json:"name"`
	Description   string             `bson:"description"    json:"description"`
	Price         float64            `bson:"price"          json:"price"`
	Category      string             `bson:"category"       json:"category"`
	Vendor        primitive.ObjectID `bson:"vendor"         json:"vendor_id"`
	Reviews       []Review           `bson:"reviews"        json:"reviews,omitempty"`
	TotalRatings  int64              `bson:"total_ratings"  json:"total_ratings"`
	ReviewCount   int64              `bson:"review_count"   json:"review_count"`
	AverageRating float64            `bson:"average_rating" json:"average_rating"`
	CreatedAt     time.Time          `bson:"created_at"     json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"     json:"updated_at"`
}

// FindReview returns the embedded review with the given id.
func (p *Product) FindReview(id primitive.ObjectID) (Review, bool) {
	for _, r := range p.Reviews {
		if r.ID == id {
			return r, true
		}
	}
	return Review{}, false
}

// RatingSnapshot is the counter projection used by the repair paths.
type RatingSnapshot struct {
	ProductID     primitive.ObjectID `bson:"_id"`
	TotalRatings  int64              `bson:"total_ratings"`
	ReviewCount   int64              `bson:"review_count"`
	AverageRating float64            `bson:"average_rating"`
}

// ProductSnapshot is the display projection joined into carts and wishlists.
type ProductSnapshot struct {
	ID            primitive.ObjectID `json:"id"`
	Name          string             `json:"name"`
	Price         float64            `json:"price"`
	Category      string             `json:"category"`
	AverageRating float64            `json:"average_rating"`
}

// Snapshot projects p for display.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      p.Category,
		AverageRating: p.AverageRating,
	}
}

// ProductInput is the payload for creating a product.
type ProductInput struct {
	Name        string  `json:"name"        validate:"required,min=2,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Price       float64 `json:"price"       validate:"gte=0"`
	Category    string  `json:"category"    validate:"required,max=100"`
}

// ProductUpdate enumerates the catalog fields that may be changed.
// Reviews and rating counters are not part of it.
type ProductUpdate struct {
	Name        *string  `json:"name"        validate:"omitempty,min=2,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"    validate:"omitempty,max=100"`
}

// Empty reports whether no field is set.
func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Category == nil
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category string
	Vendor   primitive.ObjectID
	Page     int
	Limit    int
}
