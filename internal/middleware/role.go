package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/handler"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// RequireAuthenticated rejects requests without an authenticated identity
// with 401. The message is the recorded token rejection reason when there
// is one, otherwise the generic "Unauthorized".
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if auth.IdentityFrom(c.Request().Context()) == nil {
				return unauthorized(c)
			}
			return next(c)
		}
	}
}

// RequireRole is RequireAuthenticated plus a role check. A wrong role gets
// 403 with a message that does not name the required role.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := auth.IdentityFrom(c.Request().Context())
			if id == nil {
				return unauthorized(c)
			}
			if !allowed[id.Role] {
				return handler.WriteStatus(c, http.StatusForbidden, auth.MsgAccessDenied)
			}
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	msg := auth.AuthErrorFrom(c.Request().Context())
	if msg == "" {
		msg = auth.MsgUnauthorized
	}
	return handler.WriteStatus(c, http.StatusUnauthorized, msg)
}
