package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/config"
)

func newLimited(t *testing.T, cfg config.RateLimitConfig) (*echo.Echo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := echo.New()
	e.POST("/api/auth/login/user", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, RateLimit(cfg, rdb))
	return e, mr
}

func post(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login/user", nil)
	req.RemoteAddr = ip + ":4242"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func limitCfg() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Hour,
		TTL:            5 * time.Hour,
		KeyStrategy:    "ip_route",
		Prefix:         "rl:test",
	}
}

func TestRateLimit_BlocksAfterCapacity(t *testing.T) {
	e, _ := newLimited(t, limitCfg())

	rec := post(e, "10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)

	rec = post(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, post(e, "10.0.0.2").Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	e, mr := newLimited(t, limitCfg())
	mr.Close()

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	}
}

func TestRateLimit_DisabledOrNoRedis(t *testing.T) {
	cfg := limitCfg()
	cfg.Enabled = false
	e, _ := newLimited(t, cfg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	}

	e = echo.New()
	e.POST("/api/auth/login/user", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RateLimit(limitCfg(), nil))
	assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.RemoteAddr = "192.0.2.7:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/auth/refresh")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}
	assert.Equal(t, "rl:ip:192.0.2.7", rateKey(cfg, c))

	cfg.KeyStrategy = "ip_route"
	assert.Equal(t, "rl:ip:192.0.2.7:route:POST /api/auth/refresh", rateKey(cfg, c))

	cfg.KeyStrategy = ""
	assert.Equal(t, "rl:ip:192.0.2.7:user:anon:route:POST /api/auth/refresh", rateKey(cfg, c))
}
