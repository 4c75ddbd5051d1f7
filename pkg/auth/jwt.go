// Package auth validates the bearer tokens that carry caller identity.
// Issuing tokens to end users is handled elsewhere; GenerateToken exists for
// tooling and tests.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/config"
)

// Claims holds the typed JWT payload. UserID is the hex user document id.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var ErrInvalidSubject = errors.New("auth: token subject is not a valid user id")

func secret() []byte {
	return []byte(config.JWTSecret())
}

// GenerateToken signs an HS256 token for userID valid for ttl.
func GenerateToken(userID primitive.ObjectID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.Hex(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ValidateToken parses t, checks signature, algorithm and expiry, and
// returns its claims.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !primitive.IsValidObjectID(claims.UserID) {
		return nil, ErrInvalidSubject
	}

	return claims, nil
}

// ObjectID returns the caller id as a document id.
func (c *Claims) ObjectID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(c.UserID)
	return id
}
