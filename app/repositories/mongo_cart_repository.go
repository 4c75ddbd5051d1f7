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

// addItemAttempts bounds the increment/append race in AddItem.
const addItemAttempts = 3

var cartProjection = bson.M{"cart": 1, "cart_version": 1}

type mongoCartRepository struct {
	users *mongo.Collection
}

// NewMongoCartRepository stores carts inside user documents. Entries are
// changed one at a time with positional updates, never by rewriting the
// whole array, so concurrent mutations of different entries do not lose
// each other.
func NewMongoCartRepository(db *mongo.Database) CartRepository {
	return &mongoCartRepository{users: db.Collection(UsersCollection)}
}

func (r *mongoCartRepository) Get(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	defer metrics.ObserveStore(UsersCollection, "cart_get", time.Now())

	var c models.Cart
	err := r.users.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(cartProjection)).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errUserNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "load cart")
	}
	return normalize(&c), nil
}

func (r *mongoCartRepository) AddItem(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	defer metrics.ObserveStore(UsersCollection, "cart_add", time.Now())

	for attempt := 0; attempt < addItemAttempts; attempt++ {
		// Existing entry: increment in place.
		c, err := r.modify(ctx,
			bson.M{"_id": userID, "cart.product": productID},
			bson.M{
				"$inc": bson.M{"cart.$.quantity": qty, "cart_version": 1},
				"$set": bson.M{"updated_at": time.Now().UTC()},
			})
		if err != nil || c != nil {
			return c, err
		}

		// No entry: append, guarded so a concurrent append cannot duplicate it.
		c, err = r.modify(ctx,
			bson.M{"_id": userID, "cart.product": bson.M{"$ne": productID}},
			bson.M{
				"$push": bson.M{"cart": models.CartItem{ProductID: productID, Quantity: qty}},
				"$inc":  bson.M{"cart_version": 1},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			})
		if err != nil || c != nil {
			return c, err
		}

		if ok, err := r.exists(ctx, userID); err != nil {
			return nil, err
		} else if !ok {
			return nil, errUserNotFound()
		}
		// The entry appeared between the two updates; go round again.
	}
	return nil, apperr.Conflict(apperr.CodeCartChanged, "Cart changed concurrently, retry")
}

func (r *mongoCartRepository) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	defer metrics.ObserveStore(UsersCollection, "cart_set", time.Now())

	c, err := r.modify(ctx,
		bson.M{"_id": userID, "cart.product": productID},
		bson.M{
			"$set": bson.M{"cart.$.quantity": qty, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"cart_version": 1},
		})
	if err != nil || c != nil {
		return c, err
	}

	ok, err := r.exists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errUserNotFound()
	}
	return nil, apperr.NotFound(apperr.CodeNotInCart, "Product not in cart")
}

func (r *mongoCartRepository) RemoveItem(ctx context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	defer metrics.ObserveStore(UsersCollection, "cart_remove", time.Now())

	c, err := r.modify(ctx,
		bson.M{"_id": userID, "cart.product": productID},
		bson.M{
			"$pull": bson.M{"cart": bson.M{"product": productID}},
			"$inc":  bson.M{"cart_version": 1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil || c != nil {
		return c, err
	}
	// Absent entry: nothing to do, report the current cart.
	return r.Get(ctx, userID)
}

func (r *mongoCartRepository) Clear(ctx context.Context, userID primitive.ObjectID, version int64) (bool, error) {
	defer metrics.ObserveStore(UsersCollection, "cart_clear", time.Now())

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "cart_version": version},
		bson.M{
			"$set": bson.M{"cart": []models.CartItem{}, "updated_at": time.Now().UTC()},
			"$inc": bson.M{"cart_version": 1},
		})
	if err != nil {
		return false, apperr.Store(err, "clear cart")
	}
	return res.MatchedCount == 1, nil
}

// modify applies update to the document matching filter and returns the
// resulting cart, or (nil, nil) when nothing matched.
func (r *mongoCartRepository) modify(ctx context.Context, filter, update bson.M) (*models.Cart, error) {
	var c models.Cart
	err := r.users.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(cartProjection)).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "update cart")
	}
	return normalize(&c), nil
}

func (r *mongoCartRepository) exists(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, apperr.Store(err, "check user")
	}
	return n > 0, nil
}

func normalize(c *models.Cart) *models.Cart {
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c
}
