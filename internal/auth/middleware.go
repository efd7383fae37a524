package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Identity is the authenticated caller derived from a bearer token.
type Identity struct {
	UserID string
	Role   string
}

// Bearer enforces access tokens signed by issuer and stores the caller's
// claims on the context.
func Bearer(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects callers whose token carries a different role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := CallerFrom(c)
		if !ok || id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "insufficient role"})
			return
		}
		c.Next()
	}
}

// CallerFrom returns the identity stored by Bearer.
func CallerFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Identity{}, false
	}
	claims, ok := v.(Claims)
	if !ok || claims.Subject == "" {
		return Identity{}, false
	}
	return Identity{UserID: claims.Subject, Role: claims.Role}, true
}
