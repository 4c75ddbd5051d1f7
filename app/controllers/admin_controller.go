package controllers

import (
	"context"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Admin interface {
	Vendors(ctx context.Context, approved *bool) ([]models.User, error)
	Clients(ctx context.Context) ([]models.User, error)
	ApproveVendor(ctx context.Context, admin services.Actor, vendorID primitive.ObjectID) (*models.User, error)
	DeleteUser(ctx context.Context, admin services.Actor, userID primitive.ObjectID) error
}

type AdminController struct {
	admin Admin
}

func NewAdminController(admin Admin) *AdminController {
	return &AdminController{admin: admin}
}

// Vendors accepts ?approved=true|false to narrow the listing.
func (c *AdminController) Vendors(w http.ResponseWriter, r *http.Request) {
	var approved *bool
	if raw := r.URL.Query().Get("approved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Fail(w, r, apperr.Invalid(apperr.CodeInvalidInput, "approved must be true or false"), nil)
			return
		}
		approved = &v
	}
	users, err := c.admin.Vendors(r.Context(), approved)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, users)
}

func (c *AdminController) Clients(w http.ResponseWriter, r *http.Request) {
	users, err := c.admin.Clients(r.Context())
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, users)
}

func (c *AdminController) Approve(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	u, err := c.admin.ApproveVendor(r.Context(), a, id)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, u)
}

func (c *AdminController) DestroyUser(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.admin.DeleteUser(r.Context(), a, id); err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, map[string]string{"id": id.Hex()})
}
