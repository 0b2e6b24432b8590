package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/auth"
)

// Authenticate runs the request authenticator and stores its result on the
// request context: the identity when authenticated, the rejection reason when
// a bearer token was presented but refused. It never rejects a request;
// RequireAuthenticated and RequireRole do that further down the chain.
func Authenticate(a *auth.Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := a.Authenticate(req.Context(), req.Method, req.URL.Path, req.Header.Get(echo.HeaderAuthorization))

			ctx := req.Context()
			switch res.Outcome {
			case auth.OutcomeAuthenticated:
				ctx = auth.WithIdentity(ctx, res.Identity)
			case auth.OutcomeRejected:
				ctx = auth.WithAuthError(ctx, res.Reason)
			default:
				return next(c)
			}
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}
