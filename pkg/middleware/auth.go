package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

type identityKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID primitive.ObjectID
	Role   string
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller placed in ctx by Authenticate.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserIDFromCtx returns the caller's user id.
func UserIDFromCtx(r *http.Request) (primitive.ObjectID, bool) {
	id, ok := IdentityFrom(r.Context())
	return id.UserID, ok
}

// RoleFromCtx returns the caller's role.
func RoleFromCtx(r *http.Request) (string, bool) {
	id, ok := IdentityFrom(r.Context())
	return id.Role, ok
}

// Authenticate requires a valid Bearer token and places the caller's
// identity in the request context.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			logger.WithCtx(r.Context()).Debug("rejected token", "error", err)
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		id := Identity{UserID: claims.ObjectID(), Role: claims.Role}
		ctx := WithIdentity(r.Context(), id)
		ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", id.UserID.Hex()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole allows only callers with one of roles. Must run after
// Authenticate.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromCtx(r)
			if !ok || !allowed[role] {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
