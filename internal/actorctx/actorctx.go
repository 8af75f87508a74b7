// Package actorctx carries the identity resolved by the auth gate on a
// context.Context so code below the HTTP layer can see who is acting.
package actorctx

import (
	"context"

	"github.com/geocoder89/storefront/internal/domain/user"
)

type ctxKey struct{}

func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(user.User)

	return u, ok && u.Username != ""
}

func UsernameFrom(ctx context.Context) (string, bool) {
	u, ok := UserFrom(ctx)
	if !ok {
		return "", false
	}
	return u.Username, true
}
