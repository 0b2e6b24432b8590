package auth

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/metrics"
	"github.com/iliyamo/course-backoffice/internal/model"
	"github.com/iliyamo/course-backoffice/internal/repository"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]+$`)

// RegisterInput is the payload of a user registration.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

// Validate checks field formats. Uniqueness is checked by Register.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&in.Email, validation.Required, validation.Length(3, 100), is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&in.FullName, validation.Length(0, 100)),
		validation.Field(&in.PhoneNumber, validation.Length(0, 20), validation.Match(phonePattern)),
	)
}

// SessionResult is returned by every operation that opens or extends a
// session.
type SessionResult struct {
	Access    AccessToken
	Refresh   RefreshToken
	Principal model.Principal
}

// SessionDeps wires a SessionIssuer.
type SessionDeps struct {
	Users   UserStore
	Admins  AdminStore
	Codec   *TokenCodec
	Refresh *RefreshStore
	Hasher  PasswordHasher
	Events  EventPublisher
	// RotateRefresh replaces the presented refresh token on every refresh.
	// When false the same token is handed back until it expires.
	RotateRefresh bool
	Now           func() time.Time
}

// SessionIssuer runs registration, login, refresh and logout.
type SessionIssuer struct {
	users    UserStore
	verifier *CredentialVerifier
	codec    *TokenCodec
	refresh  *RefreshStore
	hasher   PasswordHasher
	events   EventPublisher
	rotate   bool
	now      func() time.Time
}

func NewSessionIssuer(d SessionDeps) *SessionIssuer {
	s := &SessionIssuer{
		users:    d.Users,
		verifier: NewCredentialVerifier(d.Users, d.Admins, d.Hasher),
		codec:    d.Codec,
		refresh:  d.Refresh,
		hasher:   d.Hasher,
		events:   d.Events,
		rotate:   d.RotateRefresh,
		now:      d.Now,
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Verifier returns the credential verifier the issuer logs in with. The
// request authenticator uses it as its principal loader.
func (s *SessionIssuer) Verifier() *CredentialVerifier { return s.verifier }

// Register creates an active USER account and opens a session for it.
func (s *SessionIssuer) Register(ctx context.Context, in RegisterInput) (*SessionResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validationError(in.Validate()); err != nil {
		return nil, err
	}

	var details []string
	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, internal("check username", err)
	}
	if taken {
		details = append(details, "username: username already exists")
	}
	taken, err = s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, internal("check email", err)
	}
	if taken {
		details = append(details, "email: email already exists")
	}
	if len(details) > 0 {
		return nil, newError(KindConflict, MsgConflict, details...)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal("hash password", err)
	}
	u := &model.User{
		ID:              uuid.NewString(),
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		FullName:        in.FullName,
		PhoneNumber:     in.PhoneNumber,
		MembershipLevel: model.MembershipNormal,
		Status:          model.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, conflictOrInternal("create user", err)
	}
	metrics.UserRegisteredTotal.Inc()

	p := model.UserPrincipal(u)
	res, err := s.open(ctx, p)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, s.principalEvent(EventRegistered, p))
	return res, nil
}

// LoginUser authenticates against the user store only.
func (s *SessionIssuer) LoginUser(ctx context.Context, username, password string) (*SessionResult, error) {
	return s.login(ctx, model.RoleUser, username, password)
}

// LoginAdmin authenticates against the administrator store only.
func (s *SessionIssuer) LoginAdmin(ctx context.Context, username, password string) (*SessionResult, error) {
	return s.login(ctx, model.RoleAdmin, username, password)
}

func (s *SessionIssuer) login(ctx context.Context, role model.Role, username, password string) (*SessionResult, error) {
	p, err := s.verifier.AuthenticateAs(ctx, role, strings.TrimSpace(username), password)
	if err != nil {
		metrics.LoginTotal.WithLabelValues(string(role), KindOf(err).String()).Inc()
		s.emit(ctx, Event{
			Type:     EventLoginFailed,
			Username: username,
			Role:     role,
			Reason:   KindOf(err).String(),
			At:       s.now().UTC(),
		})
		return nil, err
	}
	res, err := s.open(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.LoginTotal.WithLabelValues(string(role), "success").Inc()
	s.emit(ctx, s.principalEvent(EventLogin, p))
	return res, nil
}

// Refresh exchanges a refresh token for a new access token. The owner is
// looked up among users first and administrators second, and must still be
// active.
func (s *SessionIssuer) Refresh(ctx context.Context, raw string) (*SessionResult, error) {
	if raw == "" {
		return nil, newError(KindRefreshRequired, MsgRefreshRequired)
	}
	row, err := s.refresh.Validate(ctx, raw)
	if err != nil {
		return nil, internal("validate refresh token", err)
	}
	if row == nil {
		metrics.RefreshTotal.WithLabelValues("invalid").Inc()
		return nil, newError(KindUnauthorized, MsgInvalidRefresh)
	}

	p, err := s.verifier.LoadByID(ctx, row.PrincipalID)
	if errors.Is(err, repository.ErrNotFound) {
		metrics.RefreshTotal.WithLabelValues("invalid").Inc()
		return nil, newError(KindUnauthorized, MsgInvalidRefresh)
	}
	if err != nil {
		return nil, internal("load token owner", err)
	}
	if err := statusError(p.Status()); err != nil {
		metrics.RefreshTotal.WithLabelValues(KindOf(err).String()).Inc()
		return nil, err
	}

	access, err := s.codec.Issue(p.ID(), p.Username(), p.Role)
	if err != nil {
		return nil, internal("sign access token", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()

	next := RefreshToken{Raw: raw, ExpiresAt: row.ExpiresAt}
	if s.rotate {
		ok, err := s.refresh.Consume(ctx, raw)
		if err != nil {
			return nil, internal("revoke refresh token", err)
		}
		if !ok {
			// Rotated by a concurrent request between Validate and Consume.
			metrics.RefreshTotal.WithLabelValues("invalid").Inc()
			return nil, newError(KindUnauthorized, MsgInvalidRefresh)
		}
		metrics.RefreshRevokedTotal.Inc()
		next, err = s.refresh.Issue(ctx, p.ID())
		if err != nil {
			return nil, internal("issue refresh token", err)
		}
		metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	}

	metrics.RefreshTotal.WithLabelValues("success").Inc()
	s.emit(ctx, s.principalEvent(EventRefresh, p))
	return &SessionResult{Access: access, Refresh: next, Principal: p}, nil
}

// Logout revokes one refresh token. It never fails: an unknown token is a
// no-op and store errors are only logged.
func (s *SessionIssuer) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	var owner string
	if row, err := s.refresh.Validate(ctx, raw); err == nil && row != nil {
		owner = row.PrincipalID
	}
	if err := s.refresh.Revoke(ctx, raw); err != nil {
		log.Warn().Err(err).Msg("logout: revoke refresh token")
		return
	}
	if owner != "" {
		metrics.RefreshRevokedTotal.Inc()
		s.emit(ctx, Event{Type: EventLogout, PrincipalID: owner, At: s.now().UTC()})
	}
}

// LogoutAll revokes every refresh token owned by the identity's principal.
func (s *SessionIssuer) LogoutAll(ctx context.Context, id *Identity) (int64, error) {
	if id == nil {
		return 0, newError(KindUnauthorized, MsgUnauthorized)
	}
	n, err := s.refresh.RevokeAllForPrincipal(ctx, id.PrincipalID)
	if err != nil {
		return 0, internal("revoke refresh tokens", err)
	}
	metrics.RefreshRevokedTotal.Add(float64(n))
	s.emit(ctx, Event{
		Type:        EventLogoutAll,
		PrincipalID: id.PrincipalID,
		Username:    id.Username,
		Role:        id.Role,
		At:          s.now().UTC(),
	})
	return n, nil
}

// Me reloads the principal behind an authenticated request.
func (s *SessionIssuer) Me(ctx context.Context, id *Identity) (model.Principal, error) {
	if id == nil {
		return model.Principal{}, newError(KindUnauthorized, MsgUnauthorized)
	}
	p, err := s.verifier.LoadByUsernameAndRole(ctx, id.Username, id.Role)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Principal{}, newError(KindUnauthorized, MsgUnauthorized)
	}
	if err != nil {
		return model.Principal{}, internal("load principal", err)
	}
	return p, nil
}

// open issues an access/refresh pair for p.
func (s *SessionIssuer) open(ctx context.Context, p model.Principal) (*SessionResult, error) {
	access, err := s.codec.Issue(p.ID(), p.Username(), p.Role)
	if err != nil {
		return nil, internal("sign access token", err)
	}
	refresh, err := s.refresh.Issue(ctx, p.ID())
	if err != nil {
		return nil, internal("issue refresh token", err)
	}
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return &SessionResult{Access: access, Refresh: refresh, Principal: p}, nil
}

func (s *SessionIssuer) principalEvent(t EventType, p model.Principal) Event {
	return Event{
		Type:        t,
		PrincipalID: p.ID(),
		Username:    p.Username(),
		Role:        p.Role,
		At:          s.now().UTC(),
	}
}

func (s *SessionIssuer) emit(ctx context.Context, ev Event) {
	publish(ctx, s.events, ev)
}

// validationError turns ozzo validation errors into a KindValidation error
// with one "field: message" detail per failing field.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fields validation.Errors
	if !errors.As(err, &fields) {
		return internal("validate input", err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, k+": "+fields[k].Error())
	}
	return newError(KindValidation, MsgValidation, details...)
}

// conflictOrInternal maps a unique-key violation raised at insert time, when
// a concurrent registration won the race past the pre-checks, onto the same
// conflict error the pre-checks produce.
func conflictOrInternal(op string, err error) error {
	var dup *repository.DuplicateError
	if errors.As(err, &dup) {
		field := dup.Field
		if field == "" {
			return newError(KindConflict, MsgConflict)
		}
		return newError(KindConflict, MsgConflict, field+": "+field+" already exists")
	}
	return internal(op, err)
}
