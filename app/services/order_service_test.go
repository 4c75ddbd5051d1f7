package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/event"
)

func TestConfirm_SnapshotsPricesAndClearsCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p1 := f.db.addProduct("Mug", 10, primitive.NilObjectID)
	p2 := f.db.addProduct("Pen", 5, primitive.NilObjectID)

	_, err := f.carts.Add(ctx, user, p1, 2)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, user, p2, 1)
	require.NoError(t, err)

	order, err := f.orders.Confirm(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, 25.0, order.Total)
	assert.Equal(t, models.OrderPending, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, models.OrderItem{ProductID: p1, Name: "Mug", Quantity: 2, UnitPrice: 10}, order.Items[0])

	view, err := f.carts.View(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, []string{event.OrderConfirmed}, f.events.published())

	// Later price changes do not touch the stored order.
	price := 99.0
	_, err = f.products.Update(ctx, Actor{Role: models.RoleAdmin}, p1, models.ProductUpdate{Price: &price})
	require.NoError(t, err)
	stored, err := f.orders.Get(ctx, user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Total)
	assert.Equal(t, 10.0, stored.Items[0].UnitPrice)
}

func TestConfirm_TotalIsRoundedToCents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Sticker", 0.1, primitive.NilObjectID)

	_, err := f.carts.Add(ctx, user, p, 3)
	require.NoError(t, err)

	order, err := f.orders.Confirm(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0.3, order.Total)
}

func TestConfirm_EmptyCart(t *testing.T) {
	f := newFixture()
	user := f.db.addUser(models.RoleClient)

	order, err := f.orders.Confirm(context.Background(), user)

	assert.Nil(t, order)
	assert.True(t, apperr.HasCode(err, apperr.CodeCartEmpty))
	assert.Zero(t, f.db.orderCount())
}

func TestConfirm_UnknownUser(t *testing.T) {
	f := newFixture()
	_, err := f.orders.Confirm(context.Background(), primitive.NewObjectID())
	assert.True(t, apperr.HasCode(err, apperr.CodeUserNotFound))
}

func TestConfirm_MissingProductAbortsWithoutSideEffects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)

	_, err := f.carts.Add(ctx, user, p, 1)
	require.NoError(t, err)
	_, err = f.carts.Add(ctx, user, primitive.NewObjectID(), 1)
	require.NoError(t, err)

	_, err = f.orders.Confirm(ctx, user)

	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCartItem))
	assert.Zero(t, f.db.orderCount())
	view, err := f.carts.View(ctx, user)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestConfirm_OrderWriteFailureKeepsCart(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)
	_, err := f.carts.Add(ctx, user, p, 1)
	require.NoError(t, err)

	f.db.createOrderErr = errors.New("disk full")
	_, err = f.orders.Confirm(ctx, user)

	assert.ErrorIs(t, err, apperr.ErrStoreFailure)
	view, err := f.carts.View(ctx, user)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Empty(t, f.events.published())
}

func TestConfirm_ClearFailureReturnsOrderAndQueuesClear(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)
	view, err := f.carts.Add(ctx, user, p, 1)
	require.NoError(t, err)

	f.db.clearErr = errors.New("connection reset")
	order, err := f.orders.Confirm(ctx, user)

	require.NotNil(t, order)
	assert.Equal(t, 10.0, order.Total)
	assert.True(t, apperr.HasCode(err, apperr.CodeStoreFailure))
	assert.Equal(t, "Order placed but the cart could not be cleared", apperr.PublicMessage(err))
	assert.Equal(t, 1, f.db.orderCount())
	assert.Equal(t, []int64{view.Version}, f.sched.clears)
}

func TestConfirm_CartChangedDuringConfirmIsKept(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)
	extra := f.db.addProduct("Pen", 5, primitive.NilObjectID)
	_, err := f.carts.Add(ctx, user, p, 1)
	require.NoError(t, err)

	// A concurrent add lands between the order write and the clear.
	f.db.beforeClear = func(u *models.User) {
		u.Cart = append(u.Cart, models.CartItem{ProductID: extra, Quantity: 1})
		u.CartVersion++
	}
	order, err := f.orders.Confirm(ctx, user)

	require.NotNil(t, order)
	assert.True(t, apperr.HasCode(err, apperr.CodeCartChanged))
	f.db.beforeClear = nil
	view, err := f.carts.View(ctx, user)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestConfirm_ConcurrentConfirmsPlaceOneOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	user := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)
	_, err := f.carts.Add(ctx, user, p, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.Confirm(ctx, user)
		}(i)
	}
	wg.Wait()

	ok, empty := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.HasCode(err, apperr.CodeCartEmpty):
			empty++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, empty)
	assert.Equal(t, 1, f.db.orderCount())
}

func TestOrders_ListAndGetAreScopedToUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.db.addUser(models.RoleClient)
	bob := f.db.addUser(models.RoleClient)
	p := f.db.addProduct("Mug", 10, primitive.NilObjectID)

	_, err := f.carts.Add(ctx, alice, p, 1)
	require.NoError(t, err)
	order, err := f.orders.Confirm(ctx, alice)
	require.NoError(t, err)

	list, err := f.orders.List(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = f.orders.List(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.orders.Get(ctx, bob, order.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeOrderNotFound))
}
