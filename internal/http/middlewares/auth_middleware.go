package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/storefront/internal/actorctx"
	"github.com/geocoder89/storefront/internal/auth"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLookup
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLookup, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, prom: prom}
}

// RequireAuth verifies the bearer token and resolves it to the stored user.
// Every failure here is a 401; the role check happens later in RequireRole.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromHeader(c.GetHeader("Authorization"))
		if raw == "" {
			m.prom.RejectAuth("missing_token")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Token is required")
			return
		}

		claims, err := m.jwt.VerifyToken(raw)
		if err != nil {
			m.prom.RejectAuth("invalid_token")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByUsername(ctx, claims.Username)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.prom.RejectAuth("unknown_user")
				abortWithError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "auth user lookup failed", "err", err, "username", claims.Username)
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Could not verify identity")
			return
		}

		// Stash the identity on both the gin and the request context
		c.Set(ctxUserKey, u)
		c.Request = c.Request.WithContext(actorctx.WithUser(c.Request.Context(), u))

		c.Next()
	}
}

// TokenFromHeader strips an optional "Bearer " scheme. A bare token is
// accepted as-is.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)

	if len(header) >= len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		header = header[len("Bearer "):]
	}

	return strings.TrimSpace(header)
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return user.User{}, false
	}
	u, ok := v.(user.User)
	return u, ok
}

func UsernameFromContext(c *gin.Context) (string, bool) {
	u, ok := UserFromContext(c)
	if !ok || u.Username == "" {
		return "", false
	}
	return u.Username, true
}
