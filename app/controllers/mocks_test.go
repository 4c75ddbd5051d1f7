package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
)

type mockCarts struct{ mock.Mock }

func (m *mockCarts) View(ctx context.Context, userID primitive.ObjectID) (*services.CartView, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*services.CartView)
	return v, args.Error(1)
}

func (m *mockCarts) Add(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*services.CartView, error) {
	args := m.Called(ctx, userID, productID, qty)
	v, _ := args.Get(0).(*services.CartView)
	return v, args.Error(1)
}

func (m *mockCarts) SetQuantity(ctx context.Context, userID, productID primitive.ObjectID, qty int) (*services.CartView, error) {
	args := m.Called(ctx, userID, productID, qty)
	v, _ := args.Get(0).(*services.CartView)
	return v, args.Error(1)
}

func (m *mockCarts) Remove(ctx context.Context, userID, productID primitive.ObjectID) (*services.CartView, error) {
	args := m.Called(ctx, userID, productID)
	v, _ := args.Get(0).(*services.CartView)
	return v, args.Error(1)
}

type mockOrders struct{ mock.Mock }

func (m *mockOrders) Confirm(ctx context.Context, userID primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) List(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	o, _ := args.Get(0).([]models.Order)
	return o, args.Error(1)
}

func (m *mockOrders) Get(ctx context.Context, userID, orderID primitive.ObjectID) (*models.Order, error) {
	args := m.Called(ctx, userID, orderID)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

type mockReviews struct{ mock.Mock }

func (m *mockReviews) List(ctx context.Context, productID primitive.ObjectID) (*services.ReviewList, error) {
	args := m.Called(ctx, productID)
	l, _ := args.Get(0).(*services.ReviewList)
	return l, args.Error(1)
}

func (m *mockReviews) Add(ctx context.Context, productID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error) {
	args := m.Called(ctx, productID, reviewerID, rating, comment)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockReviews) Update(ctx context.Context, productID, reviewID, reviewerID primitive.ObjectID, rating int, comment string) (*models.Product, error) {
	args := m.Called(ctx, productID, reviewID, reviewerID, rating, comment)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

type mockProducts struct{ mock.Mock }

func (m *mockProducts) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]models.Product)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *mockProducts) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockProducts) Create(ctx context.Context, actor services.Actor, in models.ProductInput) (*models.Product, error) {
	args := m.Called(ctx, actor, in)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockProducts) Update(ctx context.Context, actor services.Actor, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	args := m.Called(ctx, actor, id, upd)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockProducts) Delete(ctx context.Context, actor services.Actor, id primitive.ObjectID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockWishlists struct{ mock.Mock }

func (m *mockWishlists) View(ctx context.Context, userID primitive.ObjectID) ([]services.WishlistEntry, error) {
	args := m.Called(ctx, userID)
	l, _ := args.Get(0).([]services.WishlistEntry)
	return l, args.Error(1)
}

func (m *mockWishlists) Add(ctx context.Context, userID, productID primitive.ObjectID) ([]services.WishlistEntry, error) {
	args := m.Called(ctx, userID, productID)
	l, _ := args.Get(0).([]services.WishlistEntry)
	return l, args.Error(1)
}

func (m *mockWishlists) Remove(ctx context.Context, userID, productID primitive.ObjectID) ([]services.WishlistEntry, error) {
	args := m.Called(ctx, userID, productID)
	l, _ := args.Get(0).([]services.WishlistEntry)
	return l, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockUsers) UpdateMe(ctx context.Context, userID primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockAdmin struct{ mock.Mock }

func (m *mockAdmin) Vendors(ctx context.Context, approved *bool) ([]models.User, error) {
	args := m.Called(ctx, approved)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockAdmin) Clients(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	u, _ := args.Get(0).([]models.User)
	return u, args.Error(1)
}

func (m *mockAdmin) ApproveVendor(ctx context.Context, admin services.Actor, vendorID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, admin, vendorID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAdmin) DeleteUser(ctx context.Context, admin services.Actor, userID primitive.ObjectID) error {
	return m.Called(ctx, admin, userID).Error(0)
}

// envelope mirrors the response body for assertions.
type envelope struct {
	Status  int             `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  map[string]any  `json:"errors"`
}

// call sends body to h as the given caller and decodes the envelope.
func call(t *testing.T, h http.Handler, method, target, body string, who *middleware.Identity) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if who != nil {
		req = req.WithContext(middleware.WithIdentity(req.Context(), *who))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func client() *middleware.Identity {
	return &middleware.Identity{UserID: primitive.NewObjectID(), Role: models.RoleClient}
}
