package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"huntmate/backend/internal/api/middleware"
	"huntmate/backend/internal/config"
)

func limitedRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	rm := middleware.NewRateLimiterMiddleware(cfg)
	router.GET("/ping", rm.Limit(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestRateLimiter_AllowsWithinBucket(t *testing.T) {
	router := limitedRouter(&config.Config{RateLimitBucketSize: 3, RateLimitRefillRate: 1})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}
}

func TestRateLimiter_BlocksWhenBucketExhausted(t *testing.T) {
	router := limitedRouter(&config.Config{RateLimitBucketSize: 2, RateLimitRefillRate: 0})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	router := limitedRouter(&config.Config{RateLimitBucketSize: 1, RateLimitRefillRate: 0})

	first := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	router.ServeHTTP(blocked, req)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	// A different client has its own bucket.
	other := httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	req.RemoteAddr = "10.0.0.4:1234"
	router.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}
