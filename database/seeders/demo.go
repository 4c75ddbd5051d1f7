package seeders

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/app/models"
)

func init() {
	Register("users", SeedUsers)
	Register("products", SeedProducts)
}

// Demo accounts. Seeding is keyed on email and product name, so it is safe
// to run repeatedly.
const (
	DemoAdminEmail  = "admin@storefront.test"
	DemoVendorEmail = "vendor@storefront.test"
	DemoClientEmail = "client@storefront.test"
)

var demoUsers = []struct {
	username, email, role string
}{
	{"admin", DemoAdminEmail, models.RoleAdmin},
	{"acme", DemoVendorEmail, models.RoleVendor},
	{"jane", DemoClientEmail, models.RoleClient},
}

var demoProducts = []struct {
	name, description, category string
	price                       float64
}{
	{"Trail Runner 2", "Lightweight running shoe", "shoes", 89.99},
	{"City Loafer", "Leather loafer", "shoes", 120},
	{"Merino Crew", "Wool crew neck sweater", "apparel", 75.5},
	{"Rain Shell", "Packable waterproof jacket", "apparel", 149},
	{"Steel Bottle", "Insulated 750ml bottle", "accessories", 24.95},
	{"Canvas Tote", "Heavy canvas tote bag", "accessories", 18},
}

func SeedUsers(ctx context.Context, db *mongo.Database) error {
	col := db.Collection("users")
	now := time.Now().UTC()
	for _, u := range demoUsers {
		_, err := col.UpdateOne(ctx,
			bson.M{"email": u.email},
			bson.M{
				"$set": bson.M{"username": u.username, "role": u.role, "approved": true, "updated_at": now},
				"$setOnInsert": bson.M{
					"cart":         bson.A{},
					"cart_version": int64(0),
					"wishlist":     bson.A{},
					"created_at":   now,
				},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert user %s: %w", u.email, err)
		}
	}
	return nil
}

// SeedProducts attaches the demo catalog to the demo vendor. Counters start
// at zero; existing reviews are left alone.
func SeedProducts(ctx context.Context, db *mongo.Database) error {
	var vendor struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := db.Collection("users").FindOne(ctx, bson.M{"email": DemoVendorEmail}).Decode(&vendor)
	if err != nil {
		return fmt.Errorf("find demo vendor: %w", err)
	}

	col := db.Collection("products")
	now := time.Now().UTC()
	for _, p := range demoProducts {
		_, err := col.UpdateOne(ctx,
			bson.M{"name": p.name, "vendor": vendor.ID},
			bson.M{
				"$set": bson.M{
					"description": p.description,
					"category":    p.category,
					"price":       p.price,
					"updated_at":  now,
				},
				"$setOnInsert": bson.M{
					"reviews":        bson.A{},
					"total_ratings":  int64(0),
					"review_count":   int64(0),
					"average_rating": 0.0,
					"created_at":     now,
				},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.name, err)
		}
	}
	return nil
}
