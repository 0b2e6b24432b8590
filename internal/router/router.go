package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-backoffice/internal/config"
	"github.com/iliyamo/course-backoffice/internal/handler"
	"github.com/iliyamo/course-backoffice/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational endpoints at the
// root: /healthz for load balancers and /metrics for Prometheus.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, gatherer prometheus.Gatherer) {
	e.GET("/healthz", handler.Health(db))
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// RegisterAuth registers the session endpoints under <base>/auth. Register,
// login and refresh are bypassed by the authenticator and rate limited;
// logout-all and me need an authenticated caller.
func RegisterAuth(e *echo.Echo, base string, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(base + "/auth")
	limit := middleware.RateLimit(rl, rdb)

	g.POST("/register", a.Register, limit)
	g.POST("/login/user", a.LoginUser, limit)
	g.POST("/login/admin", a.LoginAdmin, limit)
	g.POST("/refresh", a.Refresh, limit)

	// logout only needs the refresh token, not an access token
	g.POST("/logout", a.Logout)

	g.POST("/logout-all", a.LogoutAll, middleware.RequireAuthenticated())
	g.GET("/me", a.Me, middleware.RequireAuthenticated())
}
