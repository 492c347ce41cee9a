package auth

import (
	"net/http"
	"strings"

	"speedrun/backend/internal/models"
	"speedrun/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middlewares.
const (
	userIDKey = "userID"
	roleKey   = "role"
)

// TokenCookie carries the access token for browser pages.
const TokenCookie = "token"

// Middleware authenticates requests with tokens from an Issuer.
type Middleware struct {
	issuer *jwt.Issuer
}

func New(issuer *jwt.Issuer) *Middleware {
	return &Middleware{issuer: issuer}
}

// tokenFrom reads a Bearer token, falling back to the page cookie.
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (m *Middleware) authenticate(c *gin.Context) bool {
	token := tokenFrom(c)
	if token == "" {
		return false
	}
	claims, err := m.issuer.Parse(token)
	if err != nil {
		return false
	}
	c.Set(userIDKey, claims.UserID)
	c.Set(roleKey, claims.Role)
	return true
}

// Required rejects requests without a valid token.
func (m *Middleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// IsAdmin reports whether the authenticated user has the admin role.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(roleKey) == models.RoleAdmin
}
