package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the session core. All helpers are
// nil-receiver safe so a Manager can run without metrics in tests.
type Metrics struct {
	Logins          *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	SessionRestores *prometheus.CounterVec
}

// NewMetrics registers the session metrics on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "harvestmind_logins_total",
			Help: "Login attempts by credential source and outcome",
		}, []string{"source", "outcome"}),
		Registrations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "harvestmind_registrations_total",
			Help: "Self-registration attempts by outcome",
		}, []string{"outcome"}),
		SessionRestores: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "harvestmind_session_restores_total",
			Help: "Startup session restorations by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) login(source, outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) restore(outcome string) {
	if m == nil {
		return
	}
	m.SessionRestores.WithLabelValues(outcome).Inc()
}
