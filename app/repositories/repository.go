// Package repositories persists the storefront's documents. Every method
// that changes more than one field does so in a single atomic update
// against one document.
package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

// Collection names.
const (
	UsersCollection    = "users"
	ProductsCollection = "products"
	OrdersCollection   = "orders"
)

type UserRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Update(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error)
	// List returns matching accounts newest first, without cart or wishlist.
	List(ctx context.Context, f models.UserFilter) ([]models.User, error)
	// Approve marks a vendor account approved. Other roles are not found.
	Approve(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// CartRepository mutates the cart embedded in a user document. Every
// mutation increments the cart version.
type CartRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	// AddItem increments the entry's quantity, or appends it when absent.
	AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error)
	// SetQuantity fails with NOT_IN_CART when the entry is absent.
	SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error)
	// RemoveItem is a no-op when the entry is absent.
	RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error)
	// Clear empties the cart only if its version still equals version.
	// It reports whether the clear happened.
	Clear(ctx context.Context, userID primitive.ObjectID, version int64) (bool, error)
}

type WishlistRepository interface {
	Get(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID) error
	Remove(ctx context.Context, userID, productID primitive.ObjectID) error
}

// ProductReader is the read side of the catalog.
type ProductReader interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error)
}

type ProductRepository interface {
	ProductReader
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	// PushReview appends r and moves both counters in one update.
	PushReview(ctx context.Context, productID primitive.ObjectID, r models.Review) (*models.Product, error)
	// ReplaceReview rewrites a review's rating and comment and applies the
	// rating difference to total_ratings in one update. It matches only
	// while the review still belongs to authorID and still has oldRating;
	// otherwise it returns (nil, nil).
	ReplaceReview(ctx context.Context, productID, reviewID, authorID primitive.ObjectID, oldRating, newRating int, comment string, at time.Time) (*models.Product, error)
	// SetAverage writes avg only while the counters still equal total and
	// count. It reports whether the write matched.
	SetAverage(ctx context.Context, productID primitive.ObjectID, total, count int64, avg float64) (bool, error)
	RatingSnapshot(ctx context.Context, productID primitive.ObjectID) (models.RatingSnapshot, error)
	// EachRating streams the counters of every product.
	EachRating(ctx context.Context, fn func(models.RatingSnapshot) error) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error)
}
