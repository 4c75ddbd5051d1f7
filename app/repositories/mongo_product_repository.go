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
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var (
	withoutReviews = bson.M{"reviews": 0}
	ratingFields   = bson.M{"total_ratings": 1, "review_count": 1, "average_rating": 1}
)

type mongoProductRepository struct {
	products *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{products: db.Collection(ProductsCollection)}
}

func errProductNotFound() error {
	return apperr.NotFound(apperr.CodeProductNotFound, "Product not found")
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	defer metrics.ObserveStore(ProductsCollection, "find", time.Now())

	var p models.Product
	err := r.products.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errProductNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "find product")
	}
	return &p, nil
}

func (r *mongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	defer metrics.ObserveStore(ProductsCollection, "find_many", time.Now())

	if len(ids) == 0 {
		return map[primitive.ObjectID]*models.Product{}, nil
	}

	cur, err := r.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(withoutReviews))
	if err != nil {
		return nil, apperr.Store(err, "find products")
	}

	var found []*models.Product
	if err := cur.All(ctx, &found); err != nil {
		return nil, apperr.Store(err, "decode products")
	}
	return collection.KeyBy(found, func(p *models.Product) primitive.ObjectID { return p.ID }), nil
}

func (r *mongoProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	defer metrics.ObserveStore(ProductsCollection, "list", time.Now())

	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if !f.Vendor.IsZero() {
		filter["vendor"] = f.Vendor
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total, err := r.products.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, apperr.Store(err, "count products")
	}

	cur, err := r.products.Find(ctx, filter, options.Find().
		SetProjection(withoutReviews).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, apperr.Store(err, "list products")
	}
	items := []models.Product{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, apperr.Store(err, "decode products")
	}
	return items, total, nil
}

func (r *mongoProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveStore(ProductsCollection, "insert", time.Now())

	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Reviews = []models.Review{}
	p.TotalRatings, p.ReviewCount, p.AverageRating = 0, 0, 0

	if _, err := r.products.InsertOne(ctx, p); err != nil {
		return apperr.Store(err, "insert product")
	}
	return nil
}

func (r *mongoProductRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	defer metrics.ObserveStore(ProductsCollection, "update", time.Now())

	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}

	var p models.Product
	err := r.products.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errProductNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "update product")
	}
	return &p, nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	defer metrics.ObserveStore(ProductsCollection, "delete", time.Now())

	res, err := r.products.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Store(err, "delete product")
	}
	if res.DeletedCount == 0 {
		return errProductNotFound()
	}
	return nil
}

func (r *mongoProductRepository) PushReview(ctx context.Context, productID primitive.ObjectID, rv models.Review) (*models.Product, error) {
	defer metrics.ObserveStore(ProductsCollection, "push_review", time.Now())

	var p models.Product
	err := r.products.FindOneAndUpdate(ctx,
		bson.M{"_id": productID},
		bson.M{
			"$push": bson.M{"reviews": rv},
			"$inc":  bson.M{"total_ratings": rv.Rating, "review_count": 1},
			"$set":  bson.M{"updated_at": rv.CreatedAt},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errProductNotFound()
	}
	if err != nil {
		return nil, apperr.Store(err, "push review")
	}
	return &p, nil
}

func (r *mongoProductRepository) ReplaceReview(ctx context.Context, productID, reviewID, authorID primitive.ObjectID, oldRating, newRating int, comment string, at time.Time) (*models.Product, error) {
	defer metrics.ObserveStore(ProductsCollection, "replace_review", time.Now())

	filter := bson.M{
		"_id": productID,
		"reviews": bson.M{"$elemMatch": bson.M{
			"_id":    reviewID,
			"user":   authorID,
			"rating": oldRating,
		}},
	}
	update := bson.M{
		"$set": bson.M{
			"reviews.$.rating":     newRating,
			"reviews.$.comment":    comment,
			"reviews.$.updated_at": at,
			"updated_at":           at,
		},
		"$inc": bson.M{"total_ratings": newRating - oldRating},
	}

	var p models.Product
	err := r.products.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Store(err, "replace review")
	}
	return &p, nil
}

func (r *mongoProductRepository) SetAverage(ctx context.Context, productID primitive.ObjectID, total, count int64, avg float64) (bool, error) {
	defer metrics.ObserveStore(ProductsCollection, "set_average", time.Now())

	res, err := r.products.UpdateOne(ctx,
		bson.M{"_id": productID, "total_ratings": total, "review_count": count},
		bson.M{"$set": bson.M{"average_rating": avg}})
	if err != nil {
		return false, apperr.Store(err, "set average rating")
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoProductRepository) RatingSnapshot(ctx context.Context, productID primitive.ObjectID) (models.RatingSnapshot, error) {
	defer metrics.ObserveStore(ProductsCollection, "rating_snapshot", time.Now())

	var s models.RatingSnapshot
	err := r.products.FindOne(ctx, bson.M{"_id": productID},
		options.FindOne().SetProjection(ratingFields)).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s, errProductNotFound()
	}
	if err != nil {
		return s, apperr.Store(err, "load rating counters")
	}
	return s, nil
}

func (r *mongoProductRepository) EachRating(ctx context.Context, fn func(models.RatingSnapshot) error) error {
	defer metrics.ObserveStore(ProductsCollection, "scan_ratings", time.Now())

	cur, err := r.products.Find(ctx, bson.M{},
		options.Find().SetProjection(ratingFields).SetBatchSize(500))
	if err != nil {
		return apperr.Store(err, "scan ratings")
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var s models.RatingSnapshot
		if err := cur.Decode(&s); err != nil {
			return apperr.Store(err, "decode rating counters")
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return apperr.Store(cur.Err(), "scan ratings")
}
