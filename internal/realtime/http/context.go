package http

import (
	"context"

	"github.com/allisson/marketplace/internal/realtime/service"
)

// claimsKey is a context key type for storing authenticated actor claims.
type claimsKey struct{}

// WithClaims stores authenticated actor claims in the context.
func WithClaims(ctx context.Context, claims *service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// GetClaims retrieves authenticated actor claims from the context.
// Returns (claims, true) if present, or (nil, false) if no claims were set.
func GetClaims(ctx context.Context) (*service.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*service.Claims)
	return claims, ok
}
