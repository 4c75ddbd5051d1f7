// Package routes mounts the storefront's HTTP surface.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Controllers groups every controller mounted by RegisterAPI.
type Controllers struct {
	Cart     *controllers.CartController
	Orders   *controllers.OrderController
	Reviews  *controllers.ReviewController
	Products *controllers.ProductController
	Wishlist *controllers.WishlistController
	Users    *controllers.UserController
	Admin    *controllers.AdminController
	Health   *controllers.HealthController
	GraphQL  http.Handler
}

func RegisterAPI(r *router.Router, c Controllers) {
	r.Get("/health", "health", c.Health.Check)
	r.Get("/metrics", "metrics", metrics.Handler())
	if c.GraphQL != nil {
		r.Handle("/graphql", c.GraphQL)
	}

	api := r.Group("/api")

	// Catalog reads are public.
	api.Get("/products", "products.index", c.Products.Index)
	api.Get("/products/category/{category}", "products.category", c.Products.ByCategory)
	api.Get("/products/vendor/{vendorId}", "products.vendor", c.Products.ByVendor)
	api.Get("/products/{id}", "products.show", c.Products.Show)
	api.Get("/products/{id}/reviews", "reviews.index", c.Reviews.List)

	authed := api.Group("", middleware.Authenticate)

	authed.Get("/cart", "cart.view", c.Cart.View)
	authed.Post("/cart/add", "cart.add", c.Cart.Add)
	authed.Post("/cart/update", "cart.update", c.Cart.Update)
	authed.Post("/cart/remove", "cart.remove", c.Cart.Remove)

	authed.Post("/orders/confirm", "orders.confirm", c.Orders.Confirm)
	authed.Get("/orders", "orders.index", c.Orders.List)
	authed.Get("/orders/{id}", "orders.show", c.Orders.Show)

	authed.Post("/products/{id}/reviews", "reviews.store", c.Reviews.Add)
	authed.Put("/products/{id}/reviews/{reviewId}", "reviews.update", c.Reviews.Update)

	authed.Get("/wishlist", "wishlist.view", c.Wishlist.View)
	authed.Post("/wishlist/add", "wishlist.add", c.Wishlist.Add)
	authed.Post("/wishlist/remove", "wishlist.remove", c.Wishlist.Remove)

	authed.Get("/users/me", "users.me", c.Users.Me)
	authed.Put("/users/me", "users.update", c.Users.UpdateMe)

	sellers := authed.Group("", middleware.RequireRole(models.RoleVendor, models.RoleAdmin))
	sellers.Post("/products", "products.store", c.Products.Store)
	sellers.Put("/products/{id}", "products.update", c.Products.Update)
	sellers.Delete("/products/{id}", "products.destroy", c.Products.Destroy)

	admin := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	admin.Get("/vendors", "admin.vendors", c.Admin.Vendors)
	admin.Get("/clients", "admin.clients", c.Admin.Clients)
	admin.Post("/vendors/{id}/approve", "admin.vendors.approve", c.Admin.Approve)
	admin.Delete("/users/{id}", "admin.users.destroy", c.Admin.DestroyUser)
}
