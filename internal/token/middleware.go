package token

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/errors"
)

// claimsKey is the gin context key holding verified claims.
const claimsKey = "token_claims"

// Middleware rejects requests without a valid bearer token. Each failure kind
// gets its own code so clients can tell an expired token from a bad one.
func Middleware(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, "MISSING_TOKEN", "missing authorization header")
			return
		}

		scheme, raw, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			abort(c, "INVALID_AUTH_HEADER", "invalid authorization header format")
			return
		}

		claims, err := issuer.Verify(raw)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				abort(c, "TOKEN_EXPIRED", "token has expired")
			case errors.Is(err, ErrTokenMalformed):
				abort(c, "TOKEN_MALFORMED", "malformed token")
			case errors.Is(err, ErrTokenSignature):
				abort(c, "TOKEN_SIGNATURE", "invalid token signature")
			default:
				abort(c, "TOKEN_INVALID", "invalid token")
			}
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// ClaimsFrom returns the claims stored by Middleware.
func ClaimsFrom(c *gin.Context) (map[string]any, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(map[string]any)
	return claims, ok
}

func abort(c *gin.Context, code, message string) {
	infraerrors.Abort(c, infraerrors.New(http.StatusUnauthorized, code, message))
}
