package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(h)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func get(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ip + ":1234"
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitPerClient(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	r := newRouter(rateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, func() time.Time { return clock }))

	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))

	// other clients have their own bucket
	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.2"))

	clock = clock.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.1"))
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	r := newRouter(rateLimit(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1, IdleTTL: time.Minute}, func() time.Time { return clock }))

	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "10.0.0.1"))

	// a fresh limiter replaces the evicted one
	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, http.StatusNoContent, get(r, "10.0.0.1"))
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	r := newRouter(CORS(DefaultCORSConfig()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
