// Authentication guards.
//
// This file implements bearer-token authentication for protected routes. The
// middleware owns transport concerns only: it extracts the token from the
// request, delegates resolution to a narrow IdentityResolver function, and
// stashes the resolved account in the Gin context for handlers to read via
// CurrentUser.
//
// Resolution is deliberately all-or-nothing: the resolver reports (nil, false)
// for every failure mode, so the 401 body never reveals whether the token was
// malformed, expired, or referenced a deleted account.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogd/go-blog-backend/internal/domain"
)

// HeaderAccessToken is the legacy token header accepted alongside the
// standard Authorization bearer scheme.
const HeaderAccessToken = "x-access-token"

// ctxKeyUser stashes the authenticated account in the Gin context.
const ctxKeyUser = "auth.user"

// IdentityResolver maps a raw bearer token to the live account it represents.
// Implementations must collapse every failure to (nil, false).
type IdentityResolver func(ctx context.Context, token string) (*domain.User, bool)

// CurrentUser returns the account resolved by RequireAuth for this request.
// The second return value is false on unauthenticated routes.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}

// bearerToken extracts the token from the Authorization header (Bearer
// scheme) or, failing that, from the legacy x-access-token header.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
			return strings.TrimSpace(h[7:])
		}
	}
	return strings.TrimSpace(c.GetHeader(HeaderAccessToken))
}

// RequireAuth rejects requests that do not carry a token resolving to a live
// account and attaches that account to the context for downstream handlers.
func RequireAuth(resolve IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			authRejections.WithLabelValues("token_missing").Inc()
			abortTokenInvalid(c)
			return
		}
		u, ok := resolve(c.Request.Context(), token)
		if !ok {
			authRejections.WithLabelValues("token_invalid").Inc()
			abortTokenInvalid(c)
			return
		}
		c.Set(ctxKeyUser, u)
		c.Next()
	}
}

// RequireAdmin allows only administrator accounts through. It must be mounted
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			abortTokenInvalid(c)
			return
		}
		if !u.Admin {
			authRejections.WithLabelValues("not_admin").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "forbidden",
				"message": "User is not an admin.",
			})
			return
		}
		c.Next()
	}
}

func abortTokenInvalid(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": "Token is missing or invalid.",
	})
}
