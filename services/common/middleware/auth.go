package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/groceazy/backend/services/common/auth"
)

// Gin context keys set by Authenticate.
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
)

// Authenticate resolves the caller from a bearer token (or the "token"
// cookie) when verifier has a secret, and otherwise from the identity
// headers the API gateway injects. Requests with no identity get 401.
func Authenticate(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := identify(c, verifier)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserIDKey, id.UserID)
		c.Set(RoleKey, id.Role)
		c.Set(EmailKey, id.Email)
		c.Next()
	}
}

func identify(c *gin.Context, verifier *auth.Verifier) (*auth.Identity, bool) {
	if verifier.Enabled() {
		token := bearerToken(c)
		if token == "" {
			return nil, false
		}
		id, err := verifier.Identify(token)
		if err != nil {
			return nil, false
		}
		return id, true
	}

	id := &auth.Identity{
		UserID: c.GetHeader("X-User-ID"),
		Role:   c.GetHeader("X-User-Role"),
		Email:  c.GetHeader("X-User-Email"),
	}
	return id, id.UserID != ""
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if v, err := c.Cookie("token"); err == nil {
		return v
	}
	return ""
}

// RequireRoles allows only callers whose role is one of roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
	}
}
