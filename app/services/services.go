// Package services holds the storefront's business rules. Services depend
// on repository interfaces and are safe for concurrent use.
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID primitive.ObjectID
	Role   string
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// CartClearScheduler queues a compensating conditional cart clear.
type CartClearScheduler interface {
	ScheduleCartClear(ctx context.Context, userID primitive.ObjectID, version int64) error
}

// RatingRepairScheduler queues a recomputation of a product's average.
type RatingRepairScheduler interface {
	ScheduleRatingRepair(ctx context.Context, productID primitive.ObjectID) error
}
