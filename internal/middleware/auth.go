package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared secret of internal callers
const APIKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware validates service-to-service authentication
// using the X-Internal-API-Key header
func InternalAuthMiddleware(apiKey string) gin.HandlerFunc {
	if apiKey == "" {
		// Return a middleware that always returns 500 if misconfigured
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "server misconfigured: internal API key not set",
			})
		}
	}
	apiKeyBytes := []byte(apiKey)

	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), apiKeyBytes) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}
		c.Next()
	}
}
