package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-backoffice/internal/config"
	"github.com/iliyamo/course-backoffice/internal/handler"
	"github.com/iliyamo/course-backoffice/internal/middleware"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// ResourceKinds are the back office collections exposed read-only to the
// public. Reviews may be written by any signed-in principal; every other
// kind is written by administrators only.
var ResourceKinds = []string{"courses", "news", "categories", "articles", "expert-reviews", "reviews"}

var openWriteKinds = map[string]bool{"reviews": true}

// RegisterResources registers GET list/detail (public, cached) and
// POST/PUT/DELETE (guarded) for every kind, plus /avatars/default.
func RegisterResources(e *echo.Echo, base string, h *handler.ResourceHandler, cc config.CacheConfig, rdb *redis.Client) {
	for _, kind := range ResourceKinds {
		g := e.Group(base + "/" + kind)
		cached := middleware.ResponseCache(cc, rdb, kind)

		g.GET("", h.List(kind), cached)
		g.GET("/:id", h.Get(kind), cached)

		guard := middleware.RequireRole(model.RoleAdmin)
		if openWriteKinds[kind] {
			guard = middleware.RequireAuthenticated()
		}
		g.POST("", h.Create(kind), guard)
		g.PUT("/:id", h.Update(kind), guard)
		g.PATCH("/:id", h.Update(kind), guard)
		g.DELETE("/:id", h.Delete(kind), guard)
	}

	e.GET(base+"/avatars/default", h.DefaultAvatars)
}
