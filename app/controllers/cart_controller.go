package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// Carts is the cart behaviour the controller needs.
type Carts interface {
	View(ctx context.Context, userID primitive.ObjectID) (*services.CartView, error)
	Add(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*services.CartView, error)
	SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*services.CartView, error)
	Remove(ctx context.Context, userID, productID primitive.ObjectID) (*services.CartView, error)
}

type CartController struct {
	carts Carts
}

func NewCartController(carts Carts) *CartController {
	return &CartController{carts: carts}
}

type cartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

type cartRemoveRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

func (c *CartController) View(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	view, err := c.carts.View(r.Context(), a.UserID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, view)
}

// Add increments the product's quantity; quantity defaults to 1.
func (c *CartController) Add(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body cartItemRequest
	if !decode(w, r, &body) {
		return
	}
	productID, err := parseID(body.ProductID, "product_id")
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	qty := 1
	if body.Quantity != nil {
		qty = *body.Quantity
	}

	view, err := c.carts.Add(r.Context(), a.UserID, productID, qty)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, view)
}

func (c *CartController) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body cartItemRequest
	if !decode(w, r, &body) {
		return
	}
	productID, err := parseID(body.ProductID, "product_id")
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	qty := 0
	if body.Quantity != nil {
		qty = *body.Quantity
	}

	view, err := c.carts.SetQuantity(r.Context(), a.UserID, productID, qty)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, view)
}

func (c *CartController) Remove(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body cartRemoveRequest
	if !decode(w, r, &body) {
		return
	}
	productID, err := parseID(body.ProductID, "product_id")
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}

	view, err := c.carts.Remove(r.Context(), a.UserID, productID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, view)
}
