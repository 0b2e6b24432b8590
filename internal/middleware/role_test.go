package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
)

func serve(mw echo.MiddlewareFunc, id *auth.Identity, reason string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	ctx := req.Context()
	if id != nil {
		ctx = auth.WithIdentity(ctx, id)
	}
	if reason != "" {
		ctx = auth.WithAuthError(ctx, reason)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestRequireAuthenticated(t *testing.T) {
	user := &auth.Identity{PrincipalID: "u1", Username: "alice", Role: model.RoleUser, Enabled: true}

	assert.Equal(t, http.StatusNoContent, serve(RequireAuthenticated(), user, "").Code)

	rec := serve(RequireAuthenticated(), nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.MsgUnauthorized)

	rec = serve(RequireAuthenticated(), nil, auth.TokenExpired.Message())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.TokenExpired.Message())
}

func TestRequireRole(t *testing.T) {
	user := &auth.Identity{PrincipalID: "u1", Username: "alice", Role: model.RoleUser, Enabled: true}
	admin := &auth.Identity{PrincipalID: "a1", Username: "root", Role: model.RoleAdmin, Enabled: true}

	assert.Equal(t, http.StatusNoContent, serve(RequireRole(model.RoleAdmin), admin, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(RequireRole(model.RoleUser, model.RoleAdmin), user, "").Code)

	rec := serve(RequireRole(model.RoleAdmin), user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), auth.MsgAccessDenied)
	assert.NotContains(t, rec.Body.String(), "ADMIN")

	assert.Equal(t, http.StatusUnauthorized, serve(RequireRole(model.RoleAdmin), nil, "").Code)
}
