// Package auth carries the authenticated user through a request and issues the
// bearer tokens non-browser clients present.
package auth

import (
	"context"

	"github.com/dkeye/clicker/internal/domain"
)

type userKey struct{}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user set by the identity middleware, if any.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey{}).(*domain.User)
	return u, ok && u != nil
}
