package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/lock"
)

// memDB is an in-memory stand-in for the document store. Each method
// holds the mutex for its whole body, mirroring single-document atomicity.
type memDB struct {
	mu       sync.Mutex
	users    map[primitive.ObjectID]*models.User
	products map[primitive.ObjectID]*models.Product
	orders   []models.Order

	clearErr       error
	createOrderErr error
	setAverageErr  error
	// beforeClear runs inside Clear before the version check.
	beforeClear func(u *models.User)
}

func newMemDB() *memDB {
	return &memDB{
		users:    map[primitive.ObjectID]*models.User{},
		products: map[primitive.ObjectID]*models.Product{},
	}
}

func (db *memDB) addUser(role string) primitive.ObjectID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := primitive.NewObjectID()
	db.users[id] = &models.User{ID: id, Username: "u-" + id.Hex()[:6], Role: role}
	return id
}

func (db *memDB) addProduct(name string, price float64, vendor primitive.ObjectID) primitive.ObjectID {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := primitive.NewObjectID()
	db.products[id] = &models.Product{ID: id, Name: name, Price: price, Category: "misc", Vendor: vendor, Reviews: []models.Review{}}
	return id
}

func (db *memDB) product(id primitive.ObjectID) models.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return clonedProduct(db.products[id])
}

func clonedProduct(p *models.Product) models.Product {
	c := *p
	c.Reviews = append([]models.Review(nil), p.Reviews...)
	return c
}

func cartOf(u *models.User) *models.Cart {
	return &models.Cart{UserID: u.ID, Items: append([]models.CartItem{}, u.Cart...), Version: u.CartVersion}
}

func notFoundUser() error {
	return apperr.NotFound(apperr.CodeUserNotFound, "User not found")
}

func notFoundProduct() error {
	return apperr.NotFound(apperr.CodeProductNotFound, "Product not found")
}

// ── users ────────────────────────────────────────────────────────────────────

type memUsers struct{ db *memDB }

func (r memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, notFoundUser()
	}
	c := *u
	return &c, nil
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[u.ID] = u
	return nil
}

func (r memUsers) Update(_ context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, notFoundUser()
	}
	if upd.Username != nil {
		u.Username = *upd.Username
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	c := *u
	return &c, nil
}

func (r memUsers) List(_ context.Context, f models.UserFilter) ([]models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.User{}
	for _, u := range r.db.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Approved != nil && u.Approved != *f.Approved {
			continue
		}
		c := *u
		c.Cart, c.Wishlist = nil, nil
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() > out[j].ID.Hex() })
	return out, nil
}

func (r memUsers) Approve(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.Role != models.RoleVendor {
		return nil, apperr.NotFound(apperr.CodeUserNotFound, "Vendor not found")
	}
	u.Approved = true
	c := *u
	return &c, nil
}

func (r memUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[id]; !ok {
		return notFoundUser()
	}
	delete(r.db.users, id)
	return nil
}

// ── cart ─────────────────────────────────────────────────────────────────────

type memCarts struct{ db *memDB }

func (r memCarts) Get(_ context.Context, userID primitive.ObjectID) (*models.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, notFoundUser()
	}
	return cartOf(u), nil
}

func (r memCarts) AddItem(_ context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, notFoundUser()
	}
	found := false
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity += qty
			found = true
		}
	}
	if !found {
		u.Cart = append(u.Cart, models.CartItem{ProductID: productID, Quantity: qty})
	}
	u.CartVersion++
	return cartOf(u), nil
}

func (r memCarts) SetQuantity(_ context.Context, userID, productID primitive.ObjectID, qty int) (*models.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, notFoundUser()
	}
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart[i].Quantity = qty
			u.CartVersion++
			return cartOf(u), nil
		}
	}
	return nil, apperr.NotFound(apperr.CodeNotInCart, "Product not in cart")
}

func (r memCarts) RemoveItem(_ context.Context, userID, productID primitive.ObjectID) (*models.Cart, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, notFoundUser()
	}
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
			u.CartVersion++
			break
		}
	}
	return cartOf(u), nil
}

func (r memCarts) Clear(_ context.Context, userID primitive.ObjectID, version int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.clearErr != nil {
		return false, apperr.Store(r.db.clearErr, "clear cart")
	}
	u, ok := r.db.users[userID]
	if !ok {
		return false, nil
	}
	if r.db.beforeClear != nil {
		r.db.beforeClear(u)
	}
	if u.CartVersion != version {
		return false, nil
	}
	u.Cart = nil
	u.CartVersion++
	return true, nil
}

// ── wishlist ─────────────────────────────────────────────────────────────────

type memWishlists struct{ db *memDB }

func (r memWishlists) Get(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return nil, notFoundUser()
	}
	return append([]primitive.ObjectID{}, u.Wishlist...), nil
}

func (r memWishlists) Add(_ context.Context, userID, productID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return notFoundUser()
	}
	for _, id := range u.Wishlist {
		if id == productID {
			return apperr.Invalid(apperr.CodeAlreadyInWishlist, "Product already in wishlist")
		}
	}
	u.Wishlist = append(u.Wishlist, productID)
	return nil
}

func (r memWishlists) Remove(_ context.Context, userID, productID primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[userID]
	if !ok {
		return notFoundUser()
	}
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			break
		}
	}
	return nil
}

// ── products ─────────────────────────────────────────────────────────────────

type memProducts struct {
	db        *memDB
	findCalls *int
}

func (r memProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.findCalls != nil {
		*r.findCalls++
	}
	p, ok := r.db.products[id]
	if !ok {
		return nil, notFoundProduct()
	}
	c := clonedProduct(p)
	return &c, nil
}

func (r memProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.findCalls != nil {
		*r.findCalls++
	}
	out := map[primitive.ObjectID]*models.Product{}
	for _, id := range ids {
		if p, ok := r.db.products[id]; ok {
			c := clonedProduct(p)
			out[id] = &c
		}
	}
	return out, nil
}

func (r memProducts) List(_ context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var all []models.Product
	for _, p := range r.db.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if !f.Vendor.IsZero() && p.Vendor != f.Vendor {
			continue
		}
		all = append(all, clonedProduct(p))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.Hex() < all[j].ID.Hex() })

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r memProducts) Create(_ context.Context, p *models.Product) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.Reviews = []models.Review{}
	c := clonedProduct(p)
	r.db.products[p.ID] = &c
	return nil
}

func (r memProducts) Update(_ context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, notFoundProduct()
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	c := clonedProduct(p)
	return &c, nil
}

func (r memProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.products[id]; !ok {
		return notFoundProduct()
	}
	delete(r.db.products, id)
	return nil
}

func (r memProducts) PushReview(_ context.Context, productID primitive.ObjectID, rv models.Review) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return nil, notFoundProduct()
	}
	p.Reviews = append(p.Reviews, rv)
	p.TotalRatings += int64(rv.Rating)
	p.ReviewCount++
	c := clonedProduct(p)
	return &c, nil
}

func (r memProducts) ReplaceReview(_ context.Context, productID, reviewID, authorID primitive.ObjectID, oldRating, newRating int, comment string, at time.Time) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return nil, nil
	}
	for i := range p.Reviews {
		rv := &p.Reviews[i]
		if rv.ID != reviewID || rv.UserID != authorID || rv.Rating != oldRating {
			continue
		}
		rv.Rating, rv.Comment, rv.UpdatedAt = newRating, comment, at
		p.TotalRatings += int64(newRating - oldRating)
		c := clonedProduct(p)
		return &c, nil
	}
	return nil, nil
}

func (r memProducts) SetAverage(_ context.Context, productID primitive.ObjectID, total, count int64, avg float64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.setAverageErr != nil {
		return false, apperr.Store(r.db.setAverageErr, "set average rating")
	}
	p, ok := r.db.products[productID]
	if !ok || p.TotalRatings != total || p.ReviewCount != count {
		return false, nil
	}
	p.AverageRating = avg
	return true, nil
}

func (r memProducts) RatingSnapshot(_ context.Context, productID primitive.ObjectID) (models.RatingSnapshot, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return models.RatingSnapshot{}, notFoundProduct()
	}
	return models.RatingSnapshot{ProductID: p.ID, TotalRatings: p.TotalRatings, ReviewCount: p.ReviewCount, AverageRating: p.AverageRating}, nil
}

func (r memProducts) EachRating(ctx context.Context, fn func(models.RatingSnapshot) error) error {
	r.db.mu.Lock()
	snaps := make([]models.RatingSnapshot, 0, len(r.db.products))
	for _, p := range r.db.products {
		snaps = append(snaps, models.RatingSnapshot{ProductID: p.ID, TotalRatings: p.TotalRatings, ReviewCount: p.ReviewCount, AverageRating: p.AverageRating})
	}
	r.db.mu.Unlock()
	for _, s := range snaps {
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// ── orders ───────────────────────────────────────────────────────────────────

type memOrders struct{ db *memDB }

func (r memOrders) Create(_ context.Context, o *models.Order) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.createOrderErr != nil {
		return apperr.Store(r.db.createOrderErr, "insert order")
	}
	r.db.orders = append(r.db.orders, *o)
	return nil
}

func (r memOrders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []models.Order{}
	for i := len(r.db.orders) - 1; i >= 0; i-- {
		if r.db.orders[i].UserID == userID {
			out = append(out, r.db.orders[i])
		}
	}
	return out, nil
}

func (r memOrders) FindForUser(_ context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, o := range r.db.orders {
		if o.ID == id && o.UserID == userID {
			c := o
			return &c, nil
		}
	}
	return nil, apperr.NotFound(apperr.CodeOrderNotFound, "Order not found")
}

func (db *memDB) orderCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.orders)
}

// ── audit / schedulers / events ──────────────────────────────────────────────

type memAudit struct {
	mu   sync.Mutex
	rows []models.RatingRepair
}

func (a *memAudit) Record(_ context.Context, e *models.RatingRepair) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, *e)
	return nil
}

func (a *memAudit) Recent(_ context.Context, productID primitive.ObjectID, limit int) ([]models.RatingRepair, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.RatingRepair
	for i := len(a.rows) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if productID.IsZero() || a.rows[i].ProductID == productID.Hex() {
			out = append(out, a.rows[i])
		}
	}
	return out, nil
}

type recordingScheduler struct {
	mu      sync.Mutex
	clears  []int64
	repairs []primitive.ObjectID
}

func (s *recordingScheduler) ScheduleCartClear(_ context.Context, _ primitive.ObjectID, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears = append(s.clears, version)
	return nil
}

func (s *recordingScheduler) ScheduleRatingRepair(_ context.Context, productID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repairs = append(s.repairs, productID)
	return nil
}

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPublisher) Publish(_ context.Context, name, _ string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.names...)
}

var (
	_ event.Publisher = (*recordingPublisher)(nil)
	_ lock.Locker     = (*lock.MemoryLocker)(nil)
)

// fixture wires every service against one memDB.
type fixture struct {
	db        *memDB
	sched     *recordingScheduler
	events    *recordingPublisher
	audit     *memAudit
	store     *cache.MemoryStore
	catalog   *ProductCatalog
	carts     *CartService
	orders    *OrderService
	reviews   *ReviewService
	products  *ProductService
	wishlists *WishlistService
	users     *UserService
	admin     *AdminService
	repairer  *RatingRepairer
}

func newFixture() *fixture {
	db := newMemDB()
	f := &fixture{
		db:     db,
		sched:  &recordingScheduler{},
		events: &recordingPublisher{},
		audit:  &memAudit{},
		store:  cache.NewMemoryStore(),
	}
	products := memProducts{db: db}
	f.catalog = NewProductCatalog(products, f.store, time.Minute)
	f.repairer = NewRatingRepairer(products, f.audit, 4)
	f.carts = NewCartService(memCarts{db: db}, f.catalog)
	f.orders = NewOrderService(memCarts{db: db}, products, memOrders{db: db}, lock.NewMemoryLocker(), f.sched, f.events)
	f.reviews = NewReviewService(products, f.catalog, f.sched, f.events)
	f.products = NewProductService(products, f.catalog, f.repairer)
	f.wishlists = NewWishlistService(memWishlists{db: db}, products, f.catalog)
	f.users = NewUserService(memUsers{db: db})
	f.admin = NewAdminService(memUsers{db: db})
	return f
}
