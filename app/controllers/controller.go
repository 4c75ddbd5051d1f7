// Package controllers adapts HTTP requests to service calls.
package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// actor returns the authenticated caller. Routes using it sit behind
// middleware.Authenticate, so a missing identity is answered with 401.
func actor(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w)
		return services.Actor{}, false
	}
	return services.Actor{UserID: id.UserID, Role: id.Role}, true
}

func parseID(raw, field string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Invalid(apperr.CodeInvalidReference, field+" is not a valid id")
	}
	return id, nil
}

// pathID parses the named URL parameter as an ObjectID and answers 400
// INVALID_REFERENCE when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := parseID(chi.URLParam(r, name), name)
	if err != nil {
		response.Fail(w, r, err, nil)
		return id, false
	}
	return id, true
}

// decode binds and validates the body into dest, answering 400 or 422 on
// failure.
func decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	errs, err := bind.JSON(r, dest)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return false
	}
	if errs != nil {
		response.ValidationError(w, errs)
		return false
	}
	return true
}
