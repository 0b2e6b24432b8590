package auth

import (
	"context"

	"github.com/iliyamo/course-backoffice/internal/model"
)

// Identity is the authenticated context of one request. It is created once
// by the Authenticator and is read-only afterwards.
type Identity struct {
	PrincipalID string
	Username    string
	Role        model.Role
	Enabled     bool
	Locked      bool
}

// HasRole reports whether the identity carries role r.
func (i *Identity) HasRole(r model.Role) bool { return i != nil && i.Role == r }

type ctxKey int

const (
	identityKey ctxKey = iota
	authErrorKey
)

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity stored in ctx, or nil when the request
// is unauthenticated.
func IdentityFrom(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// WithAuthError records why a presented bearer token was rejected. The
// unauthorized handler reads it back to build a precise 401 message.
func WithAuthError(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, authErrorKey, reason)
}

// AuthErrorFrom returns the recorded rejection reason, or "".
func AuthErrorFrom(ctx context.Context) string {
	s, _ := ctx.Value(authErrorKey).(string)
	return s
}
