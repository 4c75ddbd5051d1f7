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

type mongoUserRepository struct {
	users *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUserRepository{users: db.Collection(UsersCollection)}
}

func errUserNotFound() error {
	return apperr.NotFound(apperr.CodeUserNotFound, "User not found")
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer metrics.ObserveStore(UsersCollection, "find", time.Now())

	var u models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errUserNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "find user")
	}
	return &u, nil
}

func (r *mongoUserRepository) Create(ctx context.Context, u *models.User) error {
	defer metrics.ObserveStore(UsersCollection, "insert", time.Now())

	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Cart == nil {
		u.Cart = []models.CartItem{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []primitive.ObjectID{}
	}
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := r.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict(apperr.CodeInvalidInput, "Email already registered")
		}
		return apperr.Store(err, "insert user")
	}
	return nil
}

func (r *mongoUserRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	defer metrics.ObserveStore(UsersCollection, "update", time.Now())

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Username != nil {
		set["username"] = *upd.Username
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}

	var u models.User
	err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&u)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, errUserNotFound()
	case mongo.IsDuplicateKeyError(err):
		return nil, apperr.Conflict(apperr.CodeInvalidInput, "Email already registered")
	case err != nil:
		return nil, apperr.Store(err, "update user")
	}
	return &u, nil
}

// accountProjection leaves the embedded collections out of admin listings.
var accountProjection = bson.M{"cart": 0, "wishlist": 0}

func (r *mongoUserRepository) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	defer metrics.ObserveStore(UsersCollection, "list", time.Now())

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Approved != nil {
		filter["approved"] = *f.Approved
	}
	cur, err := r.users.Find(ctx, filter, options.Find().
		SetProjection(accountProjection).
		SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, apperr.Store(err, "list users")
	}
	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, apperr.Store(err, "decode users")
	}
	return users, nil
}

func (r *mongoUserRepository) Approve(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	defer metrics.ObserveStore(UsersCollection, "approve", time.Now())

	var u models.User
	err := r.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "role": models.RoleVendor},
		bson.M{"$set": bson.M{"approved": true, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(accountProjection),
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "Vendor not found")
	}
	if err != nil {
		return nil, apperr.Store(err, "approve vendor")
	}
	return &u, nil
}

func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer metrics.ObserveStore(UsersCollection, "delete", time.Now())

	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Store(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return errUserNotFound()
	}
	return nil
}
