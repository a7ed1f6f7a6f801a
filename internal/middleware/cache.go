package middleware

import "github.com/gin-gonic/gin"

// NoStore forbids any caching. Attempt state changes every tick.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
