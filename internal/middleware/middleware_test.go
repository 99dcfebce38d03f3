package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func get(r *gin.Engine, key string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestInternalAuthMiddleware(t *testing.T) {
	r := newRouter(InternalAuthMiddleware("secret"))
	assert.Equal(t, http.StatusOK, get(r, "secret"))
	assert.Equal(t, http.StatusUnauthorized, get(r, "wrong"))
	assert.Equal(t, http.StatusUnauthorized, get(r, ""))

	misconfigured := newRouter(InternalAuthMiddleware(""))
	assert.Equal(t, http.StatusInternalServerError, get(misconfigured, "anything"))
}

func TestServiceRateLimitMiddleware(t *testing.T) {
	r := newRouter(ServiceRateLimitMiddleware(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2}))
	assert.Equal(t, http.StatusOK, get(r, ""))
	assert.Equal(t, http.StatusOK, get(r, ""))
	assert.Equal(t, http.StatusTooManyRequests, get(r, ""))

	unlimited := newRouter(ServiceRateLimitMiddleware(RateLimiterConfig{}))
	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, get(unlimited, ""))
	}
}

func TestRequestLogger(t *testing.T) {
	r := newRouter(RequestLogger(zerolog.Nop()))
	assert.Equal(t, http.StatusOK, get(r, ""))
}
