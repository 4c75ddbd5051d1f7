package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Wishlists interface {
	View(ctx context.Context, userID primitive.ObjectID) ([]services.WishlistEntry, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID) ([]services.WishlistEntry, error)
	Remove(ctx context.Context, userID, productID primitive.ObjectID) ([]services.WishlistEntry, error)
}

type WishlistController struct {
	wishlists Wishlists
}

func NewWishlistController(wishlists Wishlists) *WishlistController {
	return &WishlistController{wishlists: wishlists}
}

type wishlistRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (c *WishlistController) View(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	list, err := c.wishlists.View(r.Context(), a.UserID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, list)
}

func (c *WishlistController) Add(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.wishlists.Add)
}

func (c *WishlistController) Remove(w http.ResponseWriter, r *http.Request) {
	c.mutate(w, r, c.wishlists.Remove)
}

func (c *WishlistController) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID, productID primitive.ObjectID) ([]services.WishlistEntry, error)) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body wishlistRequest
	if !decode(w, r, &body) {
		return
	}
	productID, err := parseID(body.ProductID, "product_id")
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	list, err := op(r.Context(), a.UserID, productID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, list)
}
