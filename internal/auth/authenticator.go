package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/course-backoffice/internal/metrics"
	"github.com/iliyamo/course-backoffice/internal/model"
)

// PrincipalLoader loads the principal named by a verified access token.
// *CredentialVerifier implements it.
type PrincipalLoader interface {
	LoadByUsernameAndRole(ctx context.Context, username string, role model.Role) (model.Principal, error)
}

// Outcome is the terminal state of one authentication pass.
type Outcome int

const (
	OutcomeBypassed Outcome = iota
	OutcomeNoToken
	OutcomeRejected
	OutcomeUnknownPrincipal
	OutcomeInactive
	OutcomeAuthenticated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBypassed:
		return "bypassed"
	case OutcomeNoToken:
		return "no_token"
	case OutcomeRejected:
		return "rejected"
	case OutcomeUnknownPrincipal:
		return "unknown_principal"
	case OutcomeInactive:
		return "inactive"
	case OutcomeAuthenticated:
		return "authenticated"
	}
	return "unknown"
}

// Result of Authenticate. Identity is set only for OutcomeAuthenticated and
// Reason only for OutcomeRejected.
type Result struct {
	Outcome  Outcome
	Identity *Identity
	Reason   string
}

const bearerPrefix = "Bearer "

// Authenticator is the per-request gate. It never fails: every problem with
// the presented token ends in an unauthenticated Result and the decision to
// reject is left to the authorization layer.
type Authenticator struct {
	codec  *TokenCodec
	loader PrincipalLoader
	policy BypassPolicy
}

func NewAuthenticator(codec *TokenCodec, loader PrincipalLoader, policy BypassPolicy) *Authenticator {
	return &Authenticator{codec: codec, loader: loader, policy: policy}
}

// Authenticate runs one pass for a request described by method, path and
// the raw Authorization header value.
func (a *Authenticator) Authenticate(ctx context.Context, method, path, authorization string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Str("path", path).Msg("authenticator recovered")
			res = Result{Outcome: OutcomeRejected, Reason: MsgUnauthorized}
		}
		metrics.RequestOutcomeTotal.WithLabelValues(res.Outcome.String()).Inc()
	}()

	if a.policy.Bypass(method, path) {
		return Result{Outcome: OutcomeBypassed}
	}

	token, ok := bearerToken(authorization)
	if !ok {
		return Result{Outcome: OutcomeNoToken}
	}

	claims, err := a.codec.Verify(token)
	if err != nil {
		reason := MsgUnauthorized
		var te *TokenError
		if errors.As(err, &te) {
			reason = te.Kind.Message()
		}
		log.Warn().Str("path", path).Str("reason", reason).Msg("bearer token rejected")
		return Result{Outcome: OutcomeRejected, Reason: reason}
	}

	p, err := a.loader.LoadByUsernameAndRole(ctx, claims.Username(), claims.Role())
	if err != nil || p.IsZero() {
		log.Debug().Err(err).Str("username", claims.Username()).Msg("token principal not loaded")
		return Result{Outcome: OutcomeUnknownPrincipal}
	}
	if !p.Active() {
		log.Debug().Str("username", p.Username()).Str("status", string(p.Status())).Msg("inactive principal")
		return Result{Outcome: OutcomeInactive}
	}

	return Result{
		Outcome: OutcomeAuthenticated,
		Identity: &Identity{
			PrincipalID: p.ID(),
			Username:    p.Username(),
			Role:        p.Role,
			Enabled:     p.Status() != model.StatusInactive,
			Locked:      p.Status() == model.StatusLocked,
		},
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
