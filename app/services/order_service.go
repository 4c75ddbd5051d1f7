package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/lock"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

type OrderService struct {
	carts    repositories.CartRepository
	products repositories.ProductReader
	orders   repositories.OrderRepository
	locker   lock.Locker
	clears   CartClearScheduler
	events   event.Publisher
	now      func() time.Time
}

func NewOrderService(
	carts repositories.CartRepository,
	products repositories.ProductReader,
	orders repositories.OrderRepository,
	locker lock.Locker,
	clears CartClearScheduler,
	events event.Publisher,
) *OrderService {
	return &OrderService{
		carts:    carts,
		products: products,
		orders:   orders,
		locker:   locker,
		clears:   clears,
		events:   events,
		now:      time.Now,
	}
}

// Confirm turns the user's cart into a pending order priced at this
// instant, then clears the cart.
//
// The cart is cleared only after the order is stored, and only if its
// version still equals the one that was priced. When the order is stored
// but the clear does not happen, Confirm returns the order together with
// the error: STORE_FAILURE if the clear failed (a compensating clear is
// queued) or CART_CHANGED if the cart was modified meanwhile.
func (s *OrderService) Confirm(ctx context.Context, userID primitive.ObjectID) (*models.Order, error) {
	release, err := s.locker.Acquire(ctx, "cart:"+userID.Hex())
	if err != nil {
		metrics.OrdersConfirmed.WithLabelValues("lock_failed").Inc()
		return nil, apperr.Store(err, "acquire cart lock")
	}
	defer release()

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		metrics.OrdersConfirmed.WithLabelValues("empty").Inc()
		return nil, apperr.Conflict(apperr.CodeCartEmpty, "Cart is empty")
	}

	order, err := s.price(ctx, userID, cart)
	if err != nil {
		metrics.OrdersConfirmed.WithLabelValues("invalid").Inc()
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		metrics.OrdersConfirmed.WithLabelValues("store_failed").Inc()
		return nil, err
	}

	log := logger.WithCtx(ctx).With("order_id", order.ID.Hex())
	metrics.OrderTotal.Observe(order.Total)
	s.events.Publish(ctx, event.OrderConfirmed, userID.Hex(), order)

	cleared, err := s.carts.Clear(ctx, userID, cart.Version)
	if err != nil {
		log.Error("order stored but cart clear failed", "error", err)
		if qerr := s.clears.ScheduleCartClear(ctx, userID, cart.Version); qerr != nil {
			log.Error("could not queue compensating cart clear", "error", qerr)
		}
		metrics.OrdersConfirmed.WithLabelValues("clear_failed").Inc()
		return order, apperr.Incomplete(err, "Order placed but the cart could not be cleared")
	}
	if !cleared {
		log.Warn("cart changed during confirmation, left in place", "cart_version", cart.Version)
		metrics.OrdersConfirmed.WithLabelValues("cart_changed").Inc()
		return order, apperr.Conflict(apperr.CodeCartChanged, "Order placed but the cart changed meanwhile and was kept")
	}

	metrics.OrdersConfirmed.WithLabelValues("ok").Inc()
	log.Info("order confirmed", "total", order.Total, "lines", len(order.Items))
	return order, nil
}

// price snapshots live prices for every cart entry. Any entry whose
// product no longer exists aborts confirmation.
func (s *OrderService) price(ctx context.Context, userID primitive.ObjectID, cart *models.Cart) (*models.Order, error) {
	ids := collection.Map(cart.Items, func(it models.CartItem) primitive.ObjectID { return it.ProductID })
	live, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		p, ok := live[it.ProductID]
		if !ok {
			return nil, apperr.Invalid(apperr.CodeInvalidCartItem,
				"Product "+it.ProductID.Hex()+" in cart is no longer available")
		}
		unit := decimal.NewFromFloat(p.Price)
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		})
	}

	now := s.now().UTC()
	return &models.Order{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Items:     items,
		Total:     total.Round(2).InexactFloat64(),
		Status:    models.OrderPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Get returns one of the user's orders.
func (s *OrderService) Get(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	return s.orders.FindForUser(ctx, orderID, userID)
}
