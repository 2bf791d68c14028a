package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/common/auth"
	"github.com/groceazy/backend/services/common/middleware"
)

// JWTMiddleware resolves the caller from an optional bearer token. Requests
// without a token pass through anonymously and the services decide what
// needs a login; a token that fails verification is rejected here.
func JWTMiddleware(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		id, err := verifier.Identify(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(middleware.UserIDKey, id.UserID)
		c.Set(middleware.RoleKey, id.Role)
		c.Set(middleware.EmailKey, id.Email)
		c.Next()
	}
}
