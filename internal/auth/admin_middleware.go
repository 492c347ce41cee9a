package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminOnly checks for the admin role.
// It must be used AFTER Required.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}

// SelfOrAdmin reports whether the authenticated user may act on behalf of ownerID.
func SelfOrAdmin(c *gin.Context, ownerID uint) bool {
	id, ok := UserID(c)
	return ok && (id == ownerID || IsAdmin(c))
}
