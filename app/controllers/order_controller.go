package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Orders interface {
	Confirm(ctx context.Context, userID primitive.ObjectID) (*models.Order, error)
	List(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	Get(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error)
}

type OrderController struct {
	orders Orders
}

func NewOrderController(orders Orders) *OrderController {
	return &OrderController{orders: orders}
}

// Confirm answers 201 with the order. When the order was stored but the
// cart was not cleared, the error is rendered with the order in data.
func (c *OrderController) Confirm(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	order, err := c.orders.Confirm(r.Context(), a.UserID)
	if err != nil {
		response.Fail(w, r, err, order)
		return
	}
	response.Created(w, order)
}

func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	orders, err := c.orders.List(r.Context(), a.UserID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, orders)
}

func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	order, err := c.orders.Get(r.Context(), a.UserID, id)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, order)
}
