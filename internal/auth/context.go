package auth

import (
	"context"

	"labstock/internal/models"
)

type ctxKey string

const userKey ctxKey = "currentUser"

// WithUser attaches the authenticated user to the request context.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user, or nil outside a request
// that passed JWTAuth.
func UserFrom(ctx context.Context) *models.User {
	if u, ok := ctx.Value(userKey).(*models.User); ok {
		return u
	}
	return nil
}
