package middleware

import (
	"context"
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

func cacheCfg() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		KeyStrategy:  "path_query",
		Prefix:       "cache",
		MaxBodyBytes: 1 << 10,
	}
}

type cached struct {
	e     *echo.Echo
	rdb   *redis.Client
	calls int
}

func newCached(t *testing.T) *cached {
	t.Helper()
	mr := miniredis.RunT(t)
	s := &cached{e: echo.New(), rdb: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = s.rdb.Close() })

	mw := ResponseCache(cacheCfg(), s.rdb, "courses")
	s.e.GET("/api/courses", func(c echo.Context) error {
		s.calls++
		return c.JSON(http.StatusOK, echo.Map{"calls": s.calls})
	}, mw)
	s.e.GET("/api/courses/:id", func(c echo.Context) error {
		s.calls++
		if c.Param("id") == "missing" {
			return c.NoContent(http.StatusNotFound)
		}
		if c.Param("id") == "cookie" {
			c.SetCookie(&http.Cookie{Name: "x", Value: "y"})
		}
		return c.String(http.StatusOK, c.Param("id"))
	}, mw)
	return s
}

func (s *cached) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestResponseCache_HitAfterMiss(t *testing.T) {
	s := newCached(t)

	first := s.get("/api/courses")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := s.get("/api/courses")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, first.Header().Get(echo.HeaderContentType), second.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 1, s.calls)

	s.get("/api/courses?page=2")
	assert.Equal(t, 2, s.calls)
}

func TestResponseCache_DistinctPaths(t *testing.T) {
	s := newCached(t)

	assert.Equal(t, "1", s.get("/api/courses/1").Body.String())
	assert.Equal(t, "2", s.get("/api/courses/2").Body.String())
	assert.Equal(t, "1", s.get("/api/courses/1").Body.String())
	assert.Equal(t, 2, s.calls)
}

func TestResponseCache_SkipsErrorsAndCookies(t *testing.T) {
	s := newCached(t)

	s.get("/api/courses/missing")
	s.get("/api/courses/missing")
	assert.Equal(t, 2, s.calls)

	s.get("/api/courses/cookie")
	s.get("/api/courses/cookie")
	assert.Equal(t, 4, s.calls)
}

func TestPurgeCache(t *testing.T) {
	s := newCached(t)
	s.get("/api/courses")
	s.get("/api/courses/1")
	require.Equal(t, 2, s.calls)

	require.NoError(t, PurgeCache(context.Background(), cacheCfg(), s.rdb, "courses"))

	assert.Equal(t, "MISS", s.get("/api/courses").Header().Get("X-Cache"))
	assert.Equal(t, 3, s.calls)

	assert.NoError(t, PurgeCache(context.Background(), cacheCfg(), nil, "courses"))
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"text/plain"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte("hello"))
	require.NoError(t, err)

	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "text/plain", got.Get("Content-Type"))
	assert.Equal(t, "hello", string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}
