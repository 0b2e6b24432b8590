package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/model"
)

func TestAccounts_LockUserEndsSessions(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	u := e.addUser(t, "alice", "pw123456", model.StatusActive)

	login, err := e.issuer.LoginUser(ctx, "alice", "pw123456")
	require.NoError(t, err)

	require.NoError(t, e.accounts.SetUserStatus(ctx, "alice", model.StatusLocked))
	assert.Equal(t, 0, e.tokens.CountFor(u.ID))

	_, err = e.issuer.Refresh(ctx, login.Refresh.Raw)
	requireKind(t, auth.KindUnauthorized, err)
	_, err = e.issuer.LoginUser(ctx, "alice", "pw123456")
	requireKind(t, auth.KindLocked, err)

	require.NoError(t, e.accounts.SetUserStatus(ctx, "alice", model.StatusActive))
	_, err = e.issuer.LoginUser(ctx, "alice", "pw123456")
	require.NoError(t, err)
	assert.Contains(t, e.events.Types(), auth.EventStatus)
}

func TestAccounts_SetUserStatusErrors(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)

	requireKind(t, auth.KindNotFound, e.accounts.SetUserStatus(ctx, "ghost", model.StatusLocked))
	requireKind(t, auth.KindValidation, e.accounts.SetUserStatus(ctx, "ghost", model.AccountStatus("BANNED")))
}

func TestAccounts_SetAdminStatus(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	me := e.addAdmin(t, "root", "pw123456", model.StatusActive)
	other := e.addAdmin(t, "ops", "pw123456", model.StatusActive)

	_, err := e.issuer.LoginAdmin(ctx, "ops", "pw123456")
	require.NoError(t, err)

	require.NoError(t, e.accounts.SetAdminStatus(ctx, me.ID, other.ID, model.StatusInactive))
	assert.Equal(t, 0, e.tokens.CountFor(other.ID))
	_, err = e.issuer.LoginAdmin(ctx, "ops", "pw123456")
	requireKind(t, auth.KindDisabled, err)

	requireKind(t, auth.KindValidation, e.accounts.SetAdminStatus(ctx, me.ID, me.ID, model.StatusLocked))
	requireKind(t, auth.KindNotFound, e.accounts.SetAdminStatus(ctx, me.ID, "missing", model.StatusLocked))
}

func TestAccounts_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	// Usernames are unique per store, so a user named root does not block
	// an administrator named root.
	e.addUser(t, "root", "pw123456", model.StatusActive)

	adm, err := e.accounts.CreateAdmin(ctx, auth.CreateAdminInput{
		Username: " root ",
		Email:    "Root@Example.com",
		Password: "admin-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "root", adm.Username)
	assert.Equal(t, "root@example.com", adm.Email)
	assert.Equal(t, model.StatusActive, adm.Status)
	assert.NotEmpty(t, adm.ID)

	res, err := e.issuer.LoginAdmin(ctx, "root", "admin-password")
	require.NoError(t, err)
	assert.Equal(t, adm.ID, res.Principal.ID())

	_, err = e.accounts.CreateAdmin(ctx, auth.CreateAdminInput{
		Username: "root",
		Email:    "root@example.com",
		Password: "admin-password",
	})
	requireKind(t, auth.KindConflict, err)
	_, _, details := auth.Describe(err)
	assert.Len(t, details, 2)

	_, err = e.accounts.CreateAdmin(ctx, auth.CreateAdminInput{Username: "x"})
	requireKind(t, auth.KindValidation, err)
}

func TestAccounts_ChangePassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	u := e.addUser(t, "alice", "pw123456", model.StatusActive)
	id := &auth.Identity{PrincipalID: u.ID, Username: "alice", Role: model.RoleUser}

	login, err := e.issuer.LoginUser(ctx, "alice", "pw123456")
	require.NoError(t, err)

	err = e.accounts.ChangePassword(ctx, id, auth.ChangePasswordInput{CurrentPassword: "wrong-pass", NewPassword: "newpass123"})
	requireKind(t, auth.KindValidation, err)
	err = e.accounts.ChangePassword(ctx, id, auth.ChangePasswordInput{CurrentPassword: "pw123456", NewPassword: "short"})
	requireKind(t, auth.KindValidation, err)

	require.NoError(t, e.accounts.ChangePassword(ctx, id, auth.ChangePasswordInput{CurrentPassword: "pw123456", NewPassword: "newpass123"}))
	assert.Equal(t, 0, e.tokens.CountFor(u.ID))
	assert.Contains(t, e.events.Types(), auth.EventPassword)

	_, err = e.issuer.Refresh(ctx, login.Refresh.Raw)
	requireKind(t, auth.KindUnauthorized, err)
	_, err = e.issuer.LoginUser(ctx, "alice", "pw123456")
	requireKind(t, auth.KindBadCredentials, err)
	_, err = e.issuer.LoginUser(ctx, "alice", "newpass123")
	require.NoError(t, err)
}

func TestAccounts_ChangePasswordUsersOnly(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t, true)
	adm := e.addAdmin(t, "root", "adminpass1", model.StatusActive)
	in := auth.ChangePasswordInput{CurrentPassword: "adminpass1", NewPassword: "newpass123"}

	requireKind(t, auth.KindAccessDenied, e.accounts.ChangePassword(ctx, nil, in))
	requireKind(t, auth.KindAccessDenied, e.accounts.ChangePassword(ctx,
		&auth.Identity{PrincipalID: adm.ID, Username: "root", Role: model.RoleAdmin}, in))
}
