package auth

import (
	"context"
	"errors"

	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

// UserStore is the subset of *repository.UserRepo the core uses.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetStatus(ctx context.Context, username string, status model.AccountStatus) error
	SetPasswordHash(ctx context.Context, id, hash string) error
}

// AdminStore is the subset of *repository.AdminRepo the core uses.
type AdminStore interface {
	Create(ctx context.Context, a *model.Administrator) error
	GetByUsername(ctx context.Context, username string) (*model.Administrator, error)
	GetByID(ctx context.Context, id string) (*model.Administrator, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SetStatus(ctx context.Context, id string, status model.AccountStatus) error
}

// LoginResolutionOrder is the order in which the principal stores are tried
// when a username is resolved without a role. Usernames are unique per store
// only, so a name held by both an administrator and a user resolves to the
// administrator here. Role-scoped lookups do not consult this order.
var LoginResolutionOrder = []model.Role{model.RoleAdmin, model.RoleUser}

// CredentialVerifier checks username/password pairs against the two
// principal stores and loads principals for the authentication filter.
type CredentialVerifier struct {
	users  UserStore
	admins AdminStore
	hasher PasswordHasher
}

func NewCredentialVerifier(users UserStore, admins AdminStore, hasher PasswordHasher) *CredentialVerifier {
	return &CredentialVerifier{users: users, admins: admins, hasher: hasher}
}

// Authenticate resolves username through LoginResolutionOrder and checks the
// password of the first principal found.
func (v *CredentialVerifier) Authenticate(ctx context.Context, username, password string) (model.Principal, error) {
	for _, role := range LoginResolutionOrder {
		p, err := v.lookup(ctx, role, username)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return model.Principal{}, internal("load principal", err)
		}
		return v.check(p, password)
	}
	v.hasher.burn(password)
	return model.Principal{}, newError(KindBadCredentials, MsgBadCredentials)
}

// AuthenticateAs checks credentials against the store of one role only; a
// user cannot log in through the admin endpoint and vice versa.
func (v *CredentialVerifier) AuthenticateAs(ctx context.Context, role model.Role, username, password string) (model.Principal, error) {
	p, err := v.lookup(ctx, role, username)
	if errors.Is(err, repository.ErrNotFound) {
		v.hasher.burn(password)
		return model.Principal{}, newError(KindBadCredentials, MsgBadCredentials)
	}
	if err != nil {
		return model.Principal{}, internal("load principal", err)
	}
	return v.check(p, password)
}

// LoadByUsernameAndRole loads a principal for the authentication filter. The
// role comes from a verified token and is part of the key because usernames
// are not unique across the two stores.
func (v *CredentialVerifier) LoadByUsernameAndRole(ctx context.Context, username string, role model.Role) (model.Principal, error) {
	if !role.Valid() {
		return model.Principal{}, repository.ErrNotFound
	}
	return v.lookup(ctx, role, username)
}

// LoadByID resolves the owner of a refresh token: users first, then
// administrators. Principal ids are UUIDs drawn for both stores, so at most
// one store can hold a given id.
func (v *CredentialVerifier) LoadByID(ctx context.Context, id string) (model.Principal, error) {
	u, err := v.users.GetByID(ctx, id)
	if err == nil {
		if u.DeletedAt != nil {
			return model.Principal{}, repository.ErrNotFound
		}
		return model.UserPrincipal(u), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return model.Principal{}, err
	}
	a, err := v.admins.GetByID(ctx, id)
	if err != nil {
		return model.Principal{}, err
	}
	return model.AdminPrincipal(a), nil
}

func (v *CredentialVerifier) lookup(ctx context.Context, role model.Role, username string) (model.Principal, error) {
	switch role {
	case model.RoleAdmin:
		a, err := v.admins.GetByUsername(ctx, username)
		if err != nil {
			return model.Principal{}, err
		}
		return model.AdminPrincipal(a), nil
	case model.RoleUser:
		u, err := v.users.GetByUsername(ctx, username)
		if err != nil {
			return model.Principal{}, err
		}
		if u.DeletedAt != nil {
			return model.Principal{}, repository.ErrNotFound
		}
		return model.UserPrincipal(u), nil
	}
	return model.Principal{}, repository.ErrNotFound
}

// check verifies the password before looking at the status, so the status
// of an account is only disclosed to someone holding its password.
func (v *CredentialVerifier) check(p model.Principal, password string) (model.Principal, error) {
	if !v.hasher.Verify(p.PasswordHash(), password) {
		return model.Principal{}, newError(KindBadCredentials, MsgBadCredentials)
	}
	if err := statusError(p.Status()); err != nil {
		return model.Principal{}, err
	}
	return p, nil
}

// statusError returns the failure for a non-active status, or nil.
func statusError(s model.AccountStatus) error {
	switch s {
	case model.StatusActive:
		return nil
	case model.StatusLocked:
		return newError(KindLocked, MsgLocked)
	}
	return newError(KindDisabled, MsgDisabled)
}
