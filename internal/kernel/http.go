package kernel

import (
	"context"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/controllers"
	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/app/schema"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/graphql"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/reqid"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

// Handler builds the HTTP surface over the wired services.
func (k *Kernel) Handler() (http.Handler, error) {
	catalog, err := schema.NewCatalog(k.Products)
	if err != nil {
		return nil, err
	}

	r := router.New()
	// Outermost first: metrics sees total latency, recovery wraps
	// everything that can panic, request id precedes anything that logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(k.Limiter.Middleware)

	routes.RegisterAPI(r, routes.Controllers{
		Cart:     controllers.NewCartController(k.Carts),
		Orders:   controllers.NewOrderController(k.Orders),
		Reviews:  controllers.NewReviewController(k.Reviews),
		Products: controllers.NewProductController(k.Products),
		Wishlist: controllers.NewWishlistController(k.Wishlists),
		Users:    controllers.NewUserController(k.Users),
		Admin:    controllers.NewAdminController(k.Admin),
		Health: controllers.NewHealthController(map[string]controllers.Probe{
			"mongo": database.PingMongo,
			"ops_db": func(ctx context.Context) error {
				sqlDB, err := k.DB.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		}),
		GraphQL: graphql.Handler(catalog),
	})
	return r.Handler(), nil
}

// RouteTable lists the named routes without connecting to any store.
func RouteTable() []router.RouteInfo {
	r := router.New()
	routes.RegisterAPI(r, routes.Controllers{})
	return r.Routes()
}
