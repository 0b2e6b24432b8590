package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/course-backoffice/internal/auth"
	"github.com/iliyamo/course-backoffice/internal/auth/authtest"
	"github.com/iliyamo/course-backoffice/internal/model"
)

type env struct {
	users    *authtest.Users
	admins   *authtest.Admins
	tokens   *authtest.Tokens
	events   *authtest.Recorder
	clk      *clock
	hasher   auth.PasswordHasher
	codec    *auth.TokenCodec
	refresh  *auth.RefreshStore
	issuer   *auth.SessionIssuer
	accounts *auth.Accounts
}

func newEnv(t *testing.T, rotate bool) *env {
	t.Helper()
	e := &env{
		users:  authtest.NewUsers(),
		admins: authtest.NewAdmins(),
		tokens: authtest.NewTokens(),
		events: &authtest.Recorder{},
		clk:    newClock(),
		hasher: auth.PasswordHasher{Cost: bcrypt.MinCost},
	}
	e.codec = auth.NewTokenCodec([]byte("test-secret-test-secret-test-sec"), 15*time.Minute, auth.WithClock(e.clk.Now))
	e.refresh = auth.NewRefreshStore(e.tokens, 7*24*time.Hour, auth.WithRefreshClock(e.clk.Now))
	e.issuer = auth.NewSessionIssuer(auth.SessionDeps{
		Users:         e.users,
		Admins:        e.admins,
		Codec:         e.codec,
		Refresh:       e.refresh,
		Hasher:        e.hasher,
		Events:        e.events,
		RotateRefresh: rotate,
		Now:           e.clk.Now,
	})
	e.accounts = auth.NewAccounts(e.users, e.admins, e.refresh, e.hasher, e.events)
	return e
}

func (e *env) addUser(t *testing.T, username, password string, status model.AccountStatus) *model.User {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	u := &model.User{
		ID:              uuid.NewString(),
		Username:        username,
		Email:           username + "@example.com",
		PasswordHash:    hash,
		MembershipLevel: model.MembershipNormal,
		Status:          status,
	}
	e.users.Put(u)
	return u
}

func (e *env) addAdmin(t *testing.T, username, password string, status model.AccountStatus) *model.Administrator {
	t.Helper()
	hash, err := e.hasher.Hash(password)
	require.NoError(t, err)
	a := &model.Administrator{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@admin.example.com",
		PasswordHash: hash,
		Status:       status,
	}
	e.admins.Put(a)
	return a
}

func requireKind(t *testing.T, want auth.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, auth.KindOf(err), "error: %v", err)
}
