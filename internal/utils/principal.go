package utils

import (
	"context"
	"time"

	"myvetstudy/internal/domain"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID  string
	Role    domain.Role
	TokenID string
	// ExpiresAt is when the presented token stops being valid.
	ExpiresAt time.Time
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
