package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

type UserService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

// UpdateMe changes only the fields enumerated by UserUpdate.
func (s *UserService) UpdateMe(ctx context.Context, userID primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, apperr.Invalid(apperr.CodeInvalidInput, "No updatable fields supplied")
	}
	return s.users.Update(ctx, userID, upd)
}
