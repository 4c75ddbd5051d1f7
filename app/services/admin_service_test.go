package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
)

func TestAdmin_ApproveVendor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := Actor{UserID: f.db.addUser(models.RoleAdmin), Role: models.RoleAdmin}
	vendor := f.db.addUser(models.RoleVendor)
	clientID := f.db.addUser(models.RoleClient)

	pending := false
	list, err := f.admin.Vendors(ctx, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, vendor, list[0].ID)

	u, err := f.admin.ApproveVendor(ctx, admin, vendor)
	require.NoError(t, err)
	assert.True(t, u.Approved)

	list, err = f.admin.Vendors(ctx, &pending)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = f.admin.Vendors(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.admin.ApproveVendor(ctx, admin, clientID)
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))
}

func TestAdmin_Clients(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.db.addUser(models.RoleClient)
	f.db.addUser(models.RoleClient)
	f.db.addUser(models.RoleVendor)
	f.db.addUser(models.RoleAdmin)

	clients, err := f.admin.Clients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)
	for _, c := range clients {
		assert.Equal(t, models.RoleClient, c.Role)
	}
}

func TestAdmin_DeleteUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := Actor{UserID: f.db.addUser(models.RoleAdmin), Role: models.RoleAdmin}
	victim := f.db.addUser(models.RoleClient)

	require.NoError(t, f.admin.DeleteUser(ctx, admin, victim))
	_, err := f.users.Me(ctx, victim)
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))

	err = f.admin.DeleteUser(ctx, admin, victim)
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))

	err = f.admin.DeleteUser(ctx, admin, admin.UserID)
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))

	err = f.admin.DeleteUser(ctx, admin, primitive.NewObjectID())
	assert.Equal(t, apperr.CodeUserNotFound, apperr.CodeOf(err))
}
