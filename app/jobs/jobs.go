// Package jobs holds the storefront's background jobs and the dispatcher
// services use to queue them.
package jobs

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/queue"
)

// Repairer recomputes one product's cached average.
type Repairer interface {
	Repair(ctx context.Context, productID primitive.ObjectID, source string) (bool, error)
}

// ClearCartJob empties a cart that an order was already placed from. The
// clear only applies while the cart version still matches.
type ClearCartJob struct {
	UserID      string `json:"user_id"`
	CartVersion int64  `json:"cart_version"`

	carts repositories.CartRepository
}

func (j *ClearCartJob) Handle(ctx context.Context) error {
	id, err := primitive.ObjectIDFromHex(j.UserID)
	if err != nil {
		// Unparseable ids never succeed on retry.
		logger.WithCtx(ctx).Error("clear cart job: bad user id", "user_id", j.UserID)
		return nil
	}
	cleared, err := j.carts.Clear(ctx, id, j.CartVersion)
	if err != nil {
		return fmt.Errorf("clear cart %s: %w", j.UserID, err)
	}
	if !cleared {
		logger.WithCtx(ctx).Info("cart changed after order, compensating clear skipped",
			"user_id", j.UserID, "cart_version", j.CartVersion)
	}
	return nil
}

// RepairRatingJob recomputes a product's average after a failed write.
type RepairRatingJob struct {
	ProductID string `json:"product_id"`

	repairer Repairer
}

func (j *RepairRatingJob) Handle(ctx context.Context) error {
	id, err := primitive.ObjectIDFromHex(j.ProductID)
	if err != nil {
		logger.WithCtx(ctx).Error("repair rating job: bad product id", "product_id", j.ProductID)
		return nil
	}
	if _, err := j.repairer.Repair(ctx, id, services.RepairByJob); err != nil {
		return fmt.Errorf("repair rating %s: %w", j.ProductID, err)
	}
	return nil
}

// Register makes both job types decodable by m with their dependencies.
func Register(m *queue.Manager, carts repositories.CartRepository, repairer Repairer) {
	m.Register(func() queue.Job { return &ClearCartJob{carts: carts} })
	m.Register(func() queue.Job { return &RepairRatingJob{repairer: repairer} })
}

// Dispatcher queues jobs on behalf of services.
type Dispatcher struct {
	queue *queue.Manager
}

func NewDispatcher(m *queue.Manager) *Dispatcher {
	return &Dispatcher{queue: m}
}

var (
	_ services.CartClearScheduler    = (*Dispatcher)(nil)
	_ services.RatingRepairScheduler = (*Dispatcher)(nil)
)

func (d *Dispatcher) ScheduleCartClear(ctx context.Context, userID primitive.ObjectID, version int64) error {
	return d.queue.Dispatch(ctx, &ClearCartJob{UserID: userID.Hex(), CartVersion: version})
}

func (d *Dispatcher) ScheduleRatingRepair(ctx context.Context, productID primitive.ObjectID) error {
	return d.queue.Dispatch(ctx, &RepairRatingJob{ProductID: productID.Hex()})
}
