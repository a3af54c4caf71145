package auth

import (
	"context"

	"github.com/coreybb/denima/models"
)

type contextKey string

const (
	userContextKey   = contextKey("user")
	claimsContextKey = contextKey("claims")
)

// WithUser returns a context carrying the authenticated user and the claims
// it was resolved from.
func WithUser(ctx context.Context, u *models.User, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, userContextKey, u)
	return context.WithValue(ctx, claimsContextKey, claims)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok && u != nil
}

// ClaimsFromContext returns the token claims the current user was resolved from.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsContextKey).(*Claims)
	return c, ok && c != nil
}
