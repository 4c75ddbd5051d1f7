package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

type mongoOrderRepository struct {
	orders *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{orders: db.Collection(OrdersCollection)}
}

func (r *mongoOrderRepository) Create(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveStore(OrdersCollection, "insert", time.Now())

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now

	if _, err := r.orders.InsertOne(ctx, o); err != nil {
		return apperr.Store(err, "insert order")
	}
	return nil
}

func (r *mongoOrderRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	defer metrics.ObserveStore(OrdersCollection, "list", time.Now())

	cur, err := r.orders.Find(ctx, bson.M{"user": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Store(err, "list orders")
	}
	orders := []models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Store(err, "decode orders")
	}
	return orders, nil
}

func (r *mongoOrderRepository) FindForUser(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	defer metrics.ObserveStore(OrdersCollection, "find", time.Now())

	var o models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id, "user": userID}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeOrderNotFound, "Order not found")
	}
	if err != nil {
		return nil, apperr.Store(err, "find order")
	}
	return &o, nil
}
