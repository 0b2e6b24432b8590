package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// AccountHandler lets administrators lock and unlock accounts and users
// change their password.
type AccountHandler struct {
	Accounts *auth.Accounts
}

func NewAccountHandler(accounts *auth.Accounts) *AccountHandler {
	return &AccountHandler{Accounts: accounts}
}

func (h *AccountHandler) LockUser(c echo.Context) error {
	return h.setUserStatus(c, model.StatusLocked)
}

func (h *AccountHandler) UnlockUser(c echo.Context) error {
	return h.setUserStatus(c, model.StatusActive)
}

func (h *AccountHandler) LockAdmin(c echo.Context) error {
	return h.setAdminStatus(c, model.StatusLocked)
}

func (h *AccountHandler) UnlockAdmin(c echo.Context) error {
	return h.setAdminStatus(c, model.StatusActive)
}

// ChangePassword lets a signed-in user replace their own password.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var in auth.ChangePasswordInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.ChangePassword(ctx, auth.IdentityFrom(c.Request().Context()), in); err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

func (h *AccountHandler) setUserStatus(c echo.Context, status model.AccountStatus) error {
	username := c.Param("username")
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.SetUserStatus(ctx, username, status); err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"username": username, "status": status})
}

func (h *AccountHandler) setAdminStatus(c echo.Context, status model.AccountStatus) error {
	id := c.Param("id")
	actor := auth.IdentityFrom(c.Request().Context())
	if actor == nil {
		return WriteStatus(c, http.StatusUnauthorized, auth.MsgUnauthorized)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Accounts.SetAdminStatus(ctx, actor.PrincipalID, id, status); err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}
