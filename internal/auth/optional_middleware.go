package auth

import "github.com/gin-gonic/gin"

// Optional sets the user when a valid token is present but lets anonymous
// requests through.
func (m *Middleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.authenticate(c)
		c.Next()
	}
}
