package controllers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

func reviewRouter(m *mockReviews) http.Handler {
	c := NewReviewController(m)
	r := chi.NewRouter()
	r.Get("/products/{id}/reviews", c.List)
	r.Post("/products/{id}/reviews", c.Add)
	r.Put("/products/{id}/reviews/{reviewId}", c.Update)
	return r
}

func TestReviews_AddCreated(t *testing.T) {
	m := &mockReviews{}
	who := client()
	product := primitive.NewObjectID()
	m.On("Add", mock.Anything, product, who.UserID, 4, "nice").
		Return(&models.Product{ID: product, TotalRatings: 4, ReviewCount: 1, AverageRating: 4}, nil)

	status, env := call(t, reviewRouter(m), http.MethodPost, "/products/"+product.Hex()+"/reviews", `{"rating":4,"comment":"nice"}`, who)

	assert.Equal(t, http.StatusCreated, status)
	var p models.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, 4.0, p.AverageRating)
	m.AssertExpectations(t)
}

func TestReviews_AddUnknownProduct(t *testing.T) {
	m := &mockReviews{}
	m.On("Add", mock.Anything, mock.Anything, mock.Anything, 3, "").
		Return(nil, apperr.NotFound(apperr.CodeProductNotFound, "Product not found"))

	status, env := call(t, reviewRouter(m), http.MethodPost, "/products/"+primitive.NewObjectID().Hex()+"/reviews", `{"rating":3}`, client())

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, apperr.CodeProductNotFound, env.Code)
}

func TestReviews_UpdateByOtherUserIsForbidden(t *testing.T) {
	m := &mockReviews{}
	product, review := primitive.NewObjectID(), primitive.NewObjectID()
	m.On("Update", mock.Anything, product, review, mock.Anything, 2, "").
		Return(nil, apperr.Unauthorized(apperr.CodeNotReviewAuthor, "Only the author can update this review"))

	status, env := call(t, reviewRouter(m), http.MethodPut,
		"/products/"+product.Hex()+"/reviews/"+review.Hex(), `{"rating":2}`, client())

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperr.CodeNotReviewAuthor, env.Code)
}

func TestReviews_UpdateMalformedReviewID(t *testing.T) {
	m := &mockReviews{}

	status, env := call(t, reviewRouter(m), http.MethodPut,
		"/products/"+primitive.NewObjectID().Hex()+"/reviews/xyz", `{"rating":2}`, client())

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, apperr.CodeInvalidReference, env.Code)
	m.AssertNotCalled(t, "Update")
}

func TestReviews_ListIsPublic(t *testing.T) {
	m := &mockReviews{}
	product := primitive.NewObjectID()
	m.On("List", mock.Anything, product).Return(&services.ReviewList{Reviews: []models.Review{}, TotalReviews: 0}, nil)

	status, env := call(t, reviewRouter(m), http.MethodGet, "/products/"+product.Hex()+"/reviews", "", nil)

	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"reviews":[],"totalReviews":0,"averageRating":0}`, string(env.Data))
}
