package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Users interface {
	Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateMe(ctx context.Context, userID primitive.ObjectID, upd models.UserUpdate) (*models.User, error)
}

type UserController struct {
	users Users
}

func NewUserController(users Users) *UserController {
	return &UserController{users: users}
}

func (c *UserController) Me(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	u, err := c.users.Me(r.Context(), a.UserID)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, u)
}

// UpdateMe accepts only the fields of models.UserUpdate; unknown fields
// such as role or cart are rejected by the binder.
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body models.UserUpdate
	if !decode(w, r, &body) {
		return
	}
	u, err := c.users.UpdateMe(r.Context(), a.UserID, body)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, u)
}
