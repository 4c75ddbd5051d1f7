package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Reviews interface {
	List(ctx context.Context, productID primitive.ObjectID) (*services.ReviewList, error)
	Add(ctx context.Context, productID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error)
	Update(ctx context.Context, productID, reviewID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error)
}

type ReviewController struct {
	reviews Reviews
}

func NewReviewController(reviews Reviews) *ReviewController {
	return &ReviewController{reviews: reviews}
}

// Range and length are checked by the service so they map to
// INVALID_RATING and INVALID_INPUT.
type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (c *ReviewController) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	list, err := c.reviews.List(r.Context(), productID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, list)
}

func (c *ReviewController) Add(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body reviewRequest
	if !decode(w, r, &body) {
		return
	}

	p, err := c.reviews.Add(r.Context(), productID, a.UserID, body.Rating, body.Comment)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Created(w, p)
}

func (c *ReviewController) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "reviewId")
	if !ok {
		return
	}
	var body reviewRequest
	if !decode(w, r, &body) {
		return
	}

	p, err := c.reviews.Update(r.Context(), productID, reviewID, a.UserID, body.Rating, body.Comment)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, p)
}
