package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_SweepsIdleKeys(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 20)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	first := rl.GetLimiter("alice")
	assert.Same(t, first, rl.GetLimiter("alice"))
	rl.GetLimiter("bob")
	assert.Equal(t, 2, rl.Len())

	now = now.Add(2 * time.Hour)
	rl.GetLimiter("carol")
	assert.Equal(t, 1, rl.Len())
	assert.NotSame(t, first, rl.GetLimiter("alice"))
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RateLimitMiddleware(NewRateLimiter(0.001, 1)))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
}

func TestCORSMiddleware_WildcardEchoesOrigin(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(CORSMiddleware([]string{"*"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://anywhere.test")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://anywhere.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
