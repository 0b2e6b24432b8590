package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/handler"
	"github.com/iliyamo/course-backoffice/internal/middleware"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// RegisterAccounts registers the ADMIN-only lock/unlock endpoints and the
// self-service password change.
func RegisterAccounts(e *echo.Echo, base string, h *handler.AccountHandler) {
	g := e.Group(base)
	admin := middleware.RequireRole(model.RoleAdmin)

	// Guards stay on the routes: group middleware would also run on the
	// group's not-found fallback and turn unknown paths into 401.
	g.PUT("/users/:username/lock", h.LockUser, admin)
	g.PUT("/users/:username/unlock", h.UnlockUser, admin)
	g.PUT("/admins/:id/lock", h.LockAdmin, admin)
	g.PUT("/admins/:id/unlock", h.UnlockAdmin, admin)

	g.PUT("/users/me/password", h.ChangePassword, middleware.RequireRole(model.RoleUser))
}
