// Package middleware holds the gin middleware shared by every API route.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/galynx/internal/access"
	"github.com/lalith-99/galynx/internal/apperr"
	"github.com/lalith-99/galynx/internal/auth"
	"github.com/lalith-99/galynx/internal/models"
)

// ContextKeyPrincipal is where Authenticate stores the resolved caller.
const ContextKeyPrincipal = "principal"

// Authenticate validates the Bearer access token and stores the resulting
// principal in the request context. Invalid or missing tokens abort with
// 401 before any handler runs.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims, err := auth.ParseAccessToken(strings.TrimSpace(token), secret)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextKeyPrincipal, access.Principal{
			UserID:      userID,
			WorkspaceID: claims.WorkspaceID,
			Email:       claims.Email,
			Role:        models.Role(claims.Role),
		})
		c.Next()
	}
}

// GetPrincipal returns the principal stored by Authenticate. The zero
// Principal comes back on unauthenticated routes.
func GetPrincipal(c *gin.Context) access.Principal {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return access.Principal{}
	}
	principal, ok := val.(access.Principal)
	if !ok {
		return access.Principal{}
	}
	return principal
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.Unauthorized(message).Response())
}
