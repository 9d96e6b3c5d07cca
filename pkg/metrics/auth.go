package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics records outcomes of credential-facing operations.
type AuthMetrics struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
}

// NewAuthMetrics registers the auth counters on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})
	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Registration attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(logins, registrations)
	return &AuthMetrics{
		logins:        logins,
		registrations: registrations,
	}
}

// IncLogin increments the login counter for the given outcome.
func (a *AuthMetrics) IncLogin(outcome string) {
	if a == nil || a.logins == nil {
		return
	}
	a.logins.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRegistration increments the registration counter for the given outcome.
func (a *AuthMetrics) IncRegistration(outcome string) {
	if a == nil || a.registrations == nil {
		return
	}
	a.registrations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
