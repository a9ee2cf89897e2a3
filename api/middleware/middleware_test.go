package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/reader/config"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(identityKey))
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", ""}))

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{name: "x-api-key", headers: map[string]string{"X-API-Key": "k1"}, status: http.StatusOK},
		{name: "bearer", headers: map[string]string{"Authorization": "Bearer k1"}, status: http.StatusOK},
		{name: "lowercase bearer", headers: map[string]string{"Authorization": "bearer k1"}, status: http.StatusOK},
		{name: "missing", headers: nil, status: http.StatusUnauthorized},
		{name: "wrong key", headers: map[string]string{"X-API-Key": "nope"}, status: http.StatusUnauthorized},
		{name: "basic auth ignored", headers: map[string]string{"Authorization": "Basic k1"}, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.headers)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "k1", w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"UNAUTHORIZED"`)
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	w := get(newEngine(Auth(nil)), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit(t *testing.T) {
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}))

	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "a"}).Code)

	w := get(r, map[string]string{"X-API-Key": "a"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"RATE_LIMITED"`)

	// Buckets are per identity.
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-API-Key": "b"}).Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	r := newEngine(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0, Burst: 0}))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(r, nil).Code)
	}
}

func TestLimiterStore_Evict(t *testing.T) {
	s := newLimiterStore(1, 1)
	now := time.Now()

	assert.True(t, s.allow("old", now.Add(-2*time.Hour)))
	assert.True(t, s.allow("new", now))
	s.evict(now.Add(-limiterIdleTTL))

	assert.Equal(t, 1, s.len())
}
