package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/heritago/backend/internal/models"
)

// identityKey stores the caller in the gin context.
const identityKey = "auth.identity"

// Authenticate attaches the bearer token's identity to the request. Requests without
// an Authorization header continue as anonymous; a bad token is rejected.
func Authenticate(tokens *TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "malformed authorization header",
			})
			return
		}

		identity, err := tokens.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "invalid or expired token",
			})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsNotAnonymous(IdentityFrom(c)) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "not_authenticated",
				Message: "authentication credentials were not provided",
			})
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the caller attached by Authenticate, or the anonymous identity.
func IdentityFrom(c *gin.Context) Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(Identity); ok {
			return identity
		}
	}
	return Identity{}
}

// WithIdentity attaches identity to the context. Used by tests and internal callers.
func WithIdentity(c *gin.Context, identity Identity) {
	c.Set(identityKey, identity)
}
