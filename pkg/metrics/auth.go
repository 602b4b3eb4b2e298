package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics records outcomes for the credential verification paths.
type AuthMetrics struct {
	logins      *prometheus.CounterVec
	tokenParses *prometheus.CounterVec
	redemptions *prometheus.CounterVec
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Login attempts by provider and outcome.",
	}, []string{"provider", "outcome"})
	tokenParses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_verifications_total",
		Help: "Bearer token verifications by outcome.",
	}, []string{"outcome"})
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_redemptions_total",
		Help: "Single-use token redemptions by purpose and outcome.",
	}, []string{"purpose", "outcome"})
	reg.MustRegister(logins, tokenParses, redemptions)
	return &AuthMetrics{
		logins:      logins,
		tokenParses: tokenParses,
		redemptions: redemptions,
	}
}

// ObserveLogin counts a login attempt outcome for the named provider.
func (m *AuthMetrics) ObserveLogin(provider, outcome string) {
	if m == nil || m.logins == nil {
		return
	}
	m.logins.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// ObserveTokenVerification counts a bearer token verification outcome.
func (m *AuthMetrics) ObserveTokenVerification(outcome string) {
	if m == nil || m.tokenParses == nil {
		return
	}
	m.tokenParses.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveRedemption counts a verification/reset token redemption outcome.
func (m *AuthMetrics) ObserveRedemption(purpose, outcome string) {
	if m == nil || m.redemptions == nil {
		return
	}
	m.redemptions.WithLabelValues(normalizeLabel(purpose), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
