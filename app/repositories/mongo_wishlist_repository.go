package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

type mongoWishlistRepository struct {
	users *mongo.Collection
}

func NewMongoWishlistRepository(db *mongo.Database) WishlistRepository {
	return &mongoWishlistRepository{users: db.Collection(UsersCollection)}
}

func (r *mongoWishlistRepository) Get(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	defer metrics.ObserveStore(UsersCollection, "wishlist_get", time.Now())

	var doc struct {
		Wishlist []primitive.ObjectID `bson:"wishlist"`
	}
	err := r.users.FindOne(ctx, bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"wishlist": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errUserNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "load wishlist")
	}
	if doc.Wishlist == nil {
		doc.Wishlist = []primitive.ObjectID{}
	}
	return doc.Wishlist, nil
}

func (r *mongoWishlistRepository) Add(ctx context.Context, userID, productID primitive.ObjectID) error {
	defer metrics.ObserveStore(UsersCollection, "wishlist_add", time.Now())

	res, err := r.users.UpdateOne(ctx,
		bson.M{"_id": userID, "wishlist": bson.M{"$ne": productID}},
		bson.M{
			"$push": bson.M{"wishlist": productID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return apperr.Store(err, "add to wishlist")
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return apperr.Store(err, "check user")
	}
	if n == 0 {
		return errUserNotFound()
	}
	return apperr.Invalid(apperr.CodeAlreadyInWishlist, "Product already in wishlist")
}

func (r *mongoWishlistRepository) Remove(ctx context.Context, userID, productID primitive.ObjectID) error {
	defer metrics.ObserveStore(UsersCollection, "wishlist_remove", time.Now())

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"wishlist": productID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return apperr.Store(err, "remove from wishlist")
	}
	if res.MatchedCount == 0 {
		return errUserNotFound()
	}
	return nil
}
