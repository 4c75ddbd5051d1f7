package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus values. Only pending is ever assigned; no transition exists.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// OrderItem captures the price at confirmation time.
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product"    json:"product_id"`
	Name      string             `bson:"name"       json:"name"`
	Quantity  int                `bson:"quantity"   json:"quantity"`
	UnitPrice float64            `bson:"unit_price" json:"unit_price"`
}

// Order is an immutable snapshot built once by order confirmation.
type Order struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user"          json:"user_id"`
	Items     []OrderItem        `bson:"items"         json:"items"`
	Total     float64            `bson:"total"         json:"total"`
	Status    OrderStatus        `bson:"status"        json:"status"`
	CreatedAt time.Time          `bson:"created_at"    json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"    json:"updated_at"`
}
