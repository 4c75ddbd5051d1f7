// Package schema defines the storefront's read-only GraphQL catalog.
package schema

import (
	"context"
	"errors"
	"time"

	"github.com/graphql-go/graphql"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/apperr"
	gql "github.com/shashiranjanraj/storefront/pkg/graphql"
)

// ProductQueries is the read side of the product service.
type ProductQueries interface {
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
}

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"userId":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"rating":    &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"comment":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.String},
		"updatedAt": &graphql.Field{Type: graphql.String},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"description":   &graphql.Field{Type: graphql.String},
		"price":         &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"category":      &graphql.Field{Type: graphql.String},
		"vendorId":      &graphql.Field{Type: graphql.ID},
		"reviewCount":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"averageRating": &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"reviews":       &graphql.Field{Type: graphql.NewList(reviewType)},
	},
})

var productPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductPage",
	Fields: graphql.Fields{
		"items": &graphql.Field{Type: graphql.NewList(productType)},
		"total": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
	},
})

// NewCatalog builds the schema: products(category, vendorId, page, limit)
// and product(id).
func NewCatalog(products ProductQueries) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: productPageType,
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
					"vendorId": &graphql.ArgumentConfig{Type: graphql.ID},
					"page":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f := models.ProductFilter{}
					f.Category, _ = p.Args["category"].(string)
					f.Page, _ = p.Args["page"].(int)
					f.Limit, _ = p.Args["limit"].(int)
					if v, ok := p.Args["vendorId"].(string); ok && v != "" {
						id, err := primitive.ObjectIDFromHex(v)
						if err != nil {
							return nil, errors.New("vendorId is not a valid id")
						}
						f.Vendor = id
					}
					items, total, err := products.List(p.Context, f)
					if err != nil {
						return nil, public(err)
					}
					out := make([]map[string]any, 0, len(items))
					for i := range items {
						out = append(out, productFields(&items[i]))
					}
					return map[string]any{"items": out, "total": int(total)}, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					raw, _ := p.Args["id"].(string)
					id, err := primitive.ObjectIDFromHex(raw)
					if err != nil {
						return nil, errors.New("id is not a valid id")
					}
					prod, err := products.Get(p.Context, id)
					if apperr.HasCode(err, apperr.CodeProductNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, public(err)
					}
					return productFields(prod), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

// public strips internal detail from err before it reaches a client.
func public(err error) error {
	return errors.New(apperr.PublicMessage(err))
}

func productFields(p *models.Product) map[string]any {
	reviews := make([]map[string]any, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		reviews = append(reviews, map[string]any{
			"id":        r.ID.Hex(),
			"userId":    r.UserID.Hex(),
			"rating":    r.Rating,
			"comment":   r.Comment,
			"createdAt": r.CreatedAt.UTC().Format(time.RFC3339),
			"updatedAt": r.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return map[string]any{
		"id":            p.ID.Hex(),
		"name":          p.Name,
		"description":   p.Description,
		"price":         p.Price,
		"category":      p.Category,
		"vendorId":      p.Vendor.Hex(),
		"reviewCount":   int(p.ReviewCount),
		"averageRating": p.AverageRating,
		"reviews":       reviews,
	}
}
