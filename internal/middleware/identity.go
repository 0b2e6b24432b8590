package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

// principalKey returns the authenticated principal id for keying rate
// limits and logs, or "anon" for unauthenticated requests.
func principalKey(c echo.Context) string {
	if id := auth.IdentityFrom(c.Request().Context()); id != nil && id.PrincipalID != "" {
		return id.PrincipalID
	}
	return "anon"
}
