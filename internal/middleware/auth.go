package middleware

import (
	"net/http"
	"strings"

	"indico/config"
	"indico/internal/auth"
	"indico/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthRequired validates the bearer JWT and stores the caller's identity in the context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthRequired.
func CurrentIdentity(c *gin.Context) (auth.Identity, error) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, domain.ErrUnauthenticated
	}
	id, ok := v.(auth.Identity)
	if !ok || id.UserID == "" {
		return auth.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// GetUserID returns the authenticated user id, or "" outside AuthRequired.
func GetUserID(c *gin.Context) string {
	id, err := CurrentIdentity(c)
	if err != nil {
		return ""
	}
	return id.UserID
}
