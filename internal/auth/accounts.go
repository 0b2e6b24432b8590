package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/iliyamo/course-backoffice/internal/metrics"
	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

// CreateAdminInput is the payload for bootstrapping an administrator.
type CreateAdminInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

func (in CreateAdminInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&in.FullName, validation.Length(0, 100)),
	)
}

// ChangePasswordInput is the payload of a self-service password change.
type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (in ChangePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required),
		validation.Field(&in.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

// Accounts changes account status and creates administrators. Any status
// other than ACTIVE also ends every session of the account: its refresh
// tokens are deleted here and its access tokens stop authenticating at the
// request authenticator's status gate.
type Accounts struct {
	users   UserStore
	admins  AdminStore
	refresh *RefreshStore
	hasher  PasswordHasher
	events  EventPublisher
	now     func() time.Time
}

func NewAccounts(users UserStore, admins AdminStore, refresh *RefreshStore, hasher PasswordHasher, events EventPublisher) *Accounts {
	if events == nil {
		events = NopPublisher{}
	}
	return &Accounts{users: users, admins: admins, refresh: refresh, hasher: hasher, events: events, now: time.Now}
}

// SetUserStatus changes the status of the user with the given username.
func (a *Accounts) SetUserStatus(ctx context.Context, username string, status model.AccountStatus) error {
	if !status.Valid() {
		return newError(KindValidation, MsgValidation, "status: unknown account status")
	}
	u, err := a.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.DeletedAt != nil) {
		return newError(KindNotFound, "user not found")
	}
	if err != nil {
		return internal("load user", err)
	}
	if err := a.users.SetStatus(ctx, username, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "user not found")
		}
		return internal("update user status", err)
	}
	u.Status = status
	return a.afterStatusChange(ctx, model.UserPrincipal(u))
}

// SetAdminStatus changes the status of administrator id. actorID is the
// administrator making the change; nobody may lock themselves out.
func (a *Accounts) SetAdminStatus(ctx context.Context, actorID, id string, status model.AccountStatus) error {
	if !status.Valid() {
		return newError(KindValidation, MsgValidation, "status: unknown account status")
	}
	if actorID == id && status != model.StatusActive {
		return newError(KindValidation, "cannot change your own account status")
	}
	adm, err := a.admins.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "administrator not found")
	}
	if err != nil {
		return internal("load administrator", err)
	}
	if err := a.admins.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newError(KindNotFound, "administrator not found")
		}
		return internal("update administrator status", err)
	}
	adm.Status = status
	return a.afterStatusChange(ctx, model.AdminPrincipal(adm))
}

// ChangePassword replaces the password of the calling user after checking
// the current one. Every refresh token of the user is revoked, so other
// devices must log in again once their access tokens expire.
func (a *Accounts) ChangePassword(ctx context.Context, id *Identity, in ChangePasswordInput) error {
	if id == nil || id.Role != model.RoleUser {
		return newError(KindAccessDenied, MsgAccessDenied)
	}
	if err := validationError(in.Validate()); err != nil {
		return err
	}
	u, err := a.users.GetByID(ctx, id.PrincipalID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && u.DeletedAt != nil) {
		return newError(KindUnauthorized, MsgUnauthorized)
	}
	if err != nil {
		return internal("load user", err)
	}
	if !a.hasher.Verify(u.PasswordHash, in.CurrentPassword) {
		return newError(KindValidation, MsgValidation, "currentPassword: does not match")
	}
	hash, err := a.hasher.Hash(in.NewPassword)
	if err != nil {
		return internal("hash password", err)
	}
	if err := a.users.SetPasswordHash(ctx, u.ID, hash); err != nil {
		return internal("update password", err)
	}
	n, err := a.refresh.RevokeAllForPrincipal(ctx, u.ID)
	if err != nil {
		return internal("revoke refresh tokens", err)
	}
	metrics.RefreshRevokedTotal.Add(float64(n))
	publish(ctx, a.events, Event{
		Type:        EventPassword,
		PrincipalID: u.ID,
		Username:    u.Username,
		Role:        model.RoleUser,
		At:          a.now().UTC(),
	})
	return nil
}

func (a *Accounts) afterStatusChange(ctx context.Context, p model.Principal) error {
	if !p.Active() {
		n, err := a.refresh.RevokeAllForPrincipal(ctx, p.ID())
		if err != nil {
			return internal("revoke refresh tokens", err)
		}
		metrics.RefreshRevokedTotal.Add(float64(n))
	}
	publish(ctx, a.events, Event{
		Type:        EventStatus,
		PrincipalID: p.ID(),
		Username:    p.Username(),
		Role:        p.Role,
		Reason:      string(p.Status()),
		At:          a.now().UTC(),
	})
	return nil
}

// CreateAdmin stores a new active administrator. Username and email must be
// unique among administrators only.
func (a *Accounts) CreateAdmin(ctx context.Context, in CreateAdminInput) (*model.Administrator, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	var details []string
	taken, err := a.admins.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, internal("check username", err)
	}
	if taken {
		details = append(details, "username: username already exists")
	}
	taken, err = a.admins.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, internal("check email", err)
	}
	if taken {
		details = append(details, "email: email already exists")
	}
	if len(details) > 0 {
		return nil, newError(KindConflict, MsgConflict, details...)
	}

	hash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	adm := &model.Administrator{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Status:       model.StatusActive,
	}
	if err := a.admins.Create(ctx, adm); err != nil {
		return nil, conflictOrInternal("create administrator", err)
	}
	return adm, nil
}
