// Package metrics holds the Prometheus collectors for authentication
// outcomes. The collectors exist from package init so that code paths
// exercised in tests never see nil metrics; Register exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	// LoginTotal counts login attempts by role (USER, ADMIN, ANY) and result.
	LoginTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_auth_logins_total",
		Help: "Login attempts by role and result.",
	}, []string{"role", "result"})

	UserRegisteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_auth_users_registered_total",
		Help: "Total number of users registered.",
	})

	TokensIssuedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_auth_tokens_issued_total",
		Help: "Tokens issued by type (access, refresh).",
	}, []string{"type"})

	RefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_auth_refresh_total",
		Help: "Refresh attempts by result.",
	}, []string{"result"})

	RefreshRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_auth_refresh_tokens_revoked_total",
		Help: "Refresh tokens deleted by logout, rotation or account changes.",
	})

	// RequestOutcomeTotal counts request authenticator outcomes.
	RequestOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_auth_request_outcomes_total",
		Help: "Per-request authentication outcomes.",
	}, []string{"outcome"})

	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_auth_rate_limited_total",
		Help: "Requests rejected by the auth rate limiter.",
	})
)

func collectors() map[string]prometheus.Collector {
	return map[string]prometheus.Collector{
		"LoginTotal":          LoginTotal,
		"UserRegisteredTotal": UserRegisteredTotal,
		"TokensIssuedTotal":   TokensIssuedTotal,
		"RefreshTotal":        RefreshTotal,
		"RefreshRevokedTotal": RefreshRevokedTotal,
		"RequestOutcomeTotal": RequestOutcomeTotal,
		"RateLimitedTotal":    RateLimitedTotal,
	}
}

// Register adds every collector to reg. It should be called once at startup.
func Register(reg prometheus.Registerer) {
	if reg == nil {
		log.Error().Msg("Prometheus registry is nil, cannot register auth metrics")
		return
	}
	for name, c := range collectors() {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Str("metric", name).Msg("failed to register metric")
		}
	}
	log.Info().Msg("auth metrics registered")
}
