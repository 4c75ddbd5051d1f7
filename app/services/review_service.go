package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

const (
	minRating        = 1
	maxRating        = 5
	maxCommentLength = 2000
	// replaceAttempts bounds retries when the same author edits a review
	// concurrently.
	replaceAttempts = 3
)

// ReviewList is the review listing of one product.
type ReviewList struct {
	Reviews       []models.Review `json:"reviews"`
	TotalReviews  int64           `json:"totalReviews"`
	AverageRating float64         `json:"averageRating"`
}

type ReviewService struct {
	products repositories.ProductRepository
	catalog  *ProductCatalog
	repairs  RatingRepairScheduler
	events   event.Publisher
	now      func() time.Time
}

func NewReviewService(products repositories.ProductRepository, catalog *ProductCatalog, repairs RatingRepairScheduler, events event.Publisher) *ReviewService {
	return &ReviewService{products: products, catalog: catalog, repairs: repairs, events: events, now: time.Now}
}

func validateReview(rating int, comment string) error {
	if rating < minRating || rating > maxRating {
		return apperr.Invalid(apperr.CodeInvalidRating, "Rating must be an integer between 1 and 5")
	}
	if len([]rune(comment)) > maxCommentLength {
		return apperr.Invalid(apperr.CodeInvalidInput, "Comment must be at most 2000 characters")
	}
	return nil
}

// Add appends a review and moves both rating counters in one update, then
// persists the recomputed average.
func (s *ReviewService) Add(ctx context.Context, productID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rv := models.Review{
		ID:        primitive.NewObjectID(),
		UserID:    reviewerID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p, err := s.products.PushReview(ctx, productID, rv)
	if err != nil {
		return nil, err
	}

	s.settleAverage(ctx, p)
	metrics.ReviewsWritten.WithLabelValues("add").Inc()
	s.events.Publish(ctx, event.ReviewAdded, productID.Hex(), map[string]any{
		"product_id": productID.Hex(),
		"review_id":  rv.ID.Hex(),
		"rating":     rating,
	})
	return p, nil
}

// Update changes the rating and comment of a review owned by reviewerID.
// The rating difference is applied to total_ratings in the same update
// that rewrites the review.
func (s *ReviewService) Update(ctx context.Context, productID, reviewID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error) {
	if err := validateReview(rating, comment); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < replaceAttempts; attempt++ {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		old, ok := p.FindReview(reviewID)
		if !ok {
			return nil, apperr.NotFound(apperr.CodeReviewNotFound, "Review not found")
		}
		if old.UserID != reviewerID {
			return nil, apperr.Unauthorized(apperr.CodeNotReviewAuthor, "Only the author can update this review")
		}

		updated, err := s.products.ReplaceReview(ctx, productID, reviewID, reviewerID, old.Rating, rating, comment, s.now().UTC())
		if err != nil {
			return nil, err
		}
		if updated == nil {
			// The review's rating changed since it was read.
			continue
		}

		s.settleAverage(ctx, updated)
		metrics.ReviewsWritten.WithLabelValues("update").Inc()
		s.events.Publish(ctx, event.ReviewUpdated, productID.Hex(), map[string]any{
			"product_id": productID.Hex(),
			"review_id":  reviewID.Hex(),
			"old_rating": old.Rating,
			"rating":     rating,
		})
		return updated, nil
	}
	return nil, apperr.Conflict(apperr.CodeReviewChanged, "Review changed concurrently, retry")
}

// List returns a product's reviews with its rating summary.
func (s *ReviewService) List(ctx context.Context, productID primitive.ObjectID) (*ReviewList, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	reviews := p.Reviews
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &ReviewList{
		Reviews:       reviews,
		TotalReviews:  p.ReviewCount,
		AverageRating: RoundAverage(p.TotalRatings, p.ReviewCount),
	}, nil
}

// settleAverage writes the average derived from p's counters, guarded on
// those counters. A failed write leaves the counters authoritative and
// queues a repair instead of failing the request.
func (s *ReviewService) settleAverage(ctx context.Context, p *models.Product) {
	avg := RoundAverage(p.TotalRatings, p.ReviewCount)
	p.AverageRating = avg
	defer s.catalog.Invalidate(ctx, p.ID)

	ok, err := s.products.SetAverage(ctx, p.ID, p.TotalRatings, p.ReviewCount, avg)
	if err != nil {
		log := logger.WithCtx(ctx).With("product_id", p.ID.Hex())
		log.Error("average rating write failed", "error", err)
		if qerr := s.repairs.ScheduleRatingRepair(ctx, p.ID); qerr != nil {
			log.Error("could not queue rating repair", "error", qerr)
		}
		return
	}
	if !ok {
		logger.WithCtx(ctx).Debug("average rating superseded by a newer review", "product_id", p.ID.Hex())
	}
}
