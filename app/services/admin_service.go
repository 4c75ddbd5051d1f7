package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// AdminService manages accounts on behalf of administrators. Route guards
// restrict callers to the admin role.
type AdminService struct {
	users repositories.UserRepository
}

func NewAdminService(users repositories.UserRepository) *AdminService {
	return &AdminService{users: users}
}

// Vendors lists vendor accounts, optionally only those with the given
// approval state.
func (s *AdminService) Vendors(ctx context.Context, approved *bool) ([]models.User, error) {
	return s.users.List(ctx, models.UserFilter{Role: models.RoleVendor, Approved: approved})
}

func (s *AdminService) Clients(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx, models.UserFilter{Role: models.RoleClient})
}

func (s *AdminService) ApproveVendor(ctx context.Context, admin Actor, vendorID primitive.ObjectID) (*models.User, error) {
	u, err := s.users.Approve(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("vendor approved", "vendor_id", vendorID.Hex(), "admin_id", admin.UserID.Hex())
	return u, nil
}

// DeleteUser removes an account. Products and orders that reference it
// are kept.
func (s *AdminService) DeleteUser(ctx context.Context, admin Actor, userID primitive.ObjectID) error {
	if userID == admin.UserID {
		return apperr.Invalid(apperr.CodeInvalidInput, "Administrators cannot delete their own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("user deleted", "user_id", userID.Hex(), "admin_id", admin.UserID.Hex())
	return nil
}
