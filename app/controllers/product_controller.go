package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type Products interface {
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, actor services.Actor, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, actor services.Actor, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error)
	Delete(ctx context.Context, actor services.Actor, id primitive.ObjectID) error
}

type ProductController struct {
	products Products
}

func NewProductController(products Products) *ProductController {
	return &ProductController{products: products}
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func (c *ProductController) list(w http.ResponseWriter, r *http.Request, f models.ProductFilter) {
	f.Page, f.Limit = pageParams(r)
	items, total, err := c.products.List(r.Context(), f)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Paginated(w, items, response.NewPagination(f.Page, f.Limit, total))
}

func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, models.ProductFilter{Category: r.URL.Query().Get("category")})
}

func (c *ProductController) ByCategory(w http.ResponseWriter, r *http.Request) {
	c.list(w, r, models.ProductFilter{Category: chi.URLParam(r, "category")})
}

func (c *ProductController) ByVendor(w http.ResponseWriter, r *http.Request) {
	vendor, ok := pathID(w, r, "vendorId")
	if !ok {
		return
	}
	c.list(w, r, models.ProductFilter{Vendor: vendor})
}

func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := c.products.Get(r.Context(), id)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, p)
}

func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	var body models.ProductInput
	if !decode(w, r, &body) {
		return
	}
	p, err := c.products.Create(r.Context(), a, body)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Created(w, p)
}

func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body models.ProductUpdate
	if !decode(w, r, &body) {
		return
	}
	p, err := c.products.Update(r.Context(), a, id, body)
	if err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, p)
}

func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	a, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := c.products.Delete(r.Context(), a, id); err != nil {
		response.Fail(w, r, err, nil)
		return
	}
	response.Success(w, map[string]string{"id": id.Hex()})
}
