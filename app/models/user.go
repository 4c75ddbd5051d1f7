package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles.
const (
	RoleClient = "client"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// CartItem is one pending purchase line. A product appears at most once.
type CartItem struct {
	ProductID primitive.ObjectID `bson:"product"  json:"product_id"`
	Quantity  int                `bson:"quantity" json:"quantity"`
}

// User owns the cart and wishlist as embedded collections.
type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"  json:"id"`
	Username    string               `bson:"username"       json:"username"`
	Email       string               `bson:"email"          json:"email"`
	Role        string               `bson:"role"           json:"role"`
	Approved    bool                 `bson:"approved"       json:"approved"`
	Cart        []CartItem           `bson:"cart"           json:"cart"`
	CartVersion int64                `bson:"cart_version"   json:"cart_version"`
	Wishlist    []primitive.ObjectID `bson:"wishlist"       json:"wishlist"`
	CreatedAt   time.Time            `bson:"created_at"     json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"     json:"updated_at"`
}

// Cart is the cart projection of a User document.
type Cart struct {
	UserID  primitive.ObjectID `bson:"_id"          json:"user_id"`
	Items   []CartItem         `bson:"cart"         json:"items"`
	Version int64              `bson:"cart_version" json:"version"`
}

// UserFilter selects accounts for the admin listings. A nil Approved
// matches both states.
type UserFilter struct {
	Role     string
	Approved *bool
}

// UserUpdate enumerates the profile fields a user may change.
type UserUpdate struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email"    validate:"omitempty,email"`
}

// Empty reports whether no field is set.
func (u UserUpdate) Empty() bool {
	return u.Username == nil && u.Email == nil
}
