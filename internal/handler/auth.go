package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// RefreshCookieName is the HttpOnly cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

const requestTimeout = 5 * time.Second

// CookieConfig shapes the refresh cookie.
type CookieConfig struct {
	Path   string // e.g. "/api/auth"
	MaxAge int    // seconds
	Secure bool
}

// AuthHandler serves the session endpoints.
type AuthHandler struct {
	Sessions *auth.SessionIssuer
	Cookie   CookieConfig
}

func NewAuthHandler(sessions *auth.SessionIssuer, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{Sessions: sessions, Cookie: cookie}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type sessionResp struct {
	AccessToken     string    `json:"accessToken"`
	RefreshToken    string    `json:"refreshToken"`
	TokenType       string    `json:"tokenType"`
	ExpiresAt       time.Time `json:"expiresAt"`
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	MembershipLevel string    `json:"membershipLevel,omitempty"`
	Status          string    `json:"status"`
}

type principalResp struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	MembershipLevel string `json:"membershipLevel,omitempty"`
	Status          string `json:"status"`
}

func newSessionResp(res *auth.SessionResult) sessionResp {
	p := res.Principal
	return sessionResp{
		AccessToken:     res.Access.Token,
		RefreshToken:    res.Refresh.Raw,
		TokenType:       "Bearer",
		ExpiresAt:       res.Access.ExpiresAt,
		UserID:          p.ID(),
		Username:        p.Username(),
		Email:           p.Email(),
		Role:            string(p.Role),
		MembershipLevel: string(p.MembershipLevel()),
		Status:          string(p.Status()),
	}
}

func newPrincipalResp(p model.Principal) principalResp {
	return principalResp{
		UserID:          p.ID(),
		Username:        p.Username(),
		Email:           p.Email(),
		Role:            string(p.Role),
		MembershipLevel: string(p.MembershipLevel()),
		Status:          string(p.Status()),
	}
}

// Register creates a user and opens a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var in auth.RegisterInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Sessions.Register(ctx, in)
	if err != nil {
		return WriteError(c, err)
	}
	return h.session(c, res)
}

// LoginUser authenticates a USER. Administrators cannot log in here.
func (h *AuthHandler) LoginUser(c echo.Context) error {
	return h.login(c, h.Sessions.LoginUser)
}

// LoginAdmin authenticates an ADMIN. Users cannot log in here.
func (h *AuthHandler) LoginAdmin(c echo.Context) error {
	return h.login(c, h.Sessions.LoginAdmin)
}

type loginFunc func(ctx context.Context, username, password string) (*auth.SessionResult, error)

func (h *AuthHandler) login(c echo.Context, fn loginFunc) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := fn(ctx, req.Username, req.Password)
	if err != nil {
		return WriteError(c, err)
	}
	return h.session(c, res)
}

// Refresh exchanges the refresh token from the cookie, or failing that the
// body, for a new access token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw, err := h.refreshToken(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	res, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		return WriteError(c, err)
	}
	return h.session(c, res)
}

// Logout revokes the presented refresh token and always clears the cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, _ := h.refreshToken(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	h.Sessions.Logout(ctx, raw)
	h.clearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// LogoutAll revokes every refresh token of the caller.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	n, err := h.Sessions.LogoutAll(ctx, auth.IdentityFrom(c.Request().Context()))
	if err != nil {
		return WriteError(c, err)
	}
	h.clearCookie(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out everywhere", "revoked": n})
}

// Me returns the caller's account summary.
func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Sessions.Me(ctx, auth.IdentityFrom(c.Request().Context()))
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, newPrincipalResp(p))
}

func (h *AuthHandler) session(c echo.Context, res *auth.SessionResult) error {
	c.SetCookie(h.cookie(res.Refresh.Raw, h.Cookie.MaxAge))
	return c.JSON(http.StatusOK, newSessionResp(res))
}

// refreshToken reads the refresh token; the cookie wins over the body.
func (h *AuthHandler) refreshToken(c echo.Context) (string, error) {
	if ck, err := c.Cookie(RefreshCookieName); err == nil && ck.Value != "" {
		return ck.Value, nil
	}
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.RefreshToken), nil
}

func (h *AuthHandler) clearCookie(c echo.Context) {
	ck := h.cookie("", 0)
	ck.MaxAge = -1 // emitted as Max-Age=0
	ck.Expires = time.Unix(0, 0)
	c.SetCookie(ck)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     h.Cookie.Path,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
