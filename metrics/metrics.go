// Package metrics exposes session lifecycle counters to Prometheus.
// A nil *Session is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "webadmin"

// Refresh outcomes
const (
	ResultSuccess    = "success"
	ResultFailure    = "failure"
	ResultSuperseded = "superseded"
)

type Session struct {
	refreshAttempts prometheus.Counter
	refreshResults  *prometheus.CounterVec
	timersArmed     prometheus.Counter
	expirations     prometheus.Counter
	loggedIn        prometheus.Gauge
	admin           prometheus.Gauge
}

// NewSession creates the collectors and registers them with reg
func NewSession(reg prometheus.Registerer) *Session {
	m := &Session{
		refreshAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_attempts_total",
			Help:      "Token refresh calls issued.",
		}),
		refreshResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refresh_results_total",
			Help:      "Token refresh calls by outcome.",
		}, []string{"result"}),
		timersArmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "expiry_timers_armed_total",
			Help:      "Expiry timers armed after a successful refresh.",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "expirations_total",
			Help:      "Sessions marked stale by their expiry timer.",
		}),
		loggedIn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "logged_in",
			Help:      "1 while a session with an access token is installed.",
		}),
		admin: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "admin",
			Help:      "1 while the installed session carries an administrative role.",
		}),
	}
	reg.MustRegister(m.refreshAttempts, m.refreshResults, m.timersArmed, m.expirations, m.loggedIn, m.admin)
	return m
}

func (m *Session) RefreshAttempt() {
	if m == nil {
		return
	}
	m.refreshAttempts.Inc()
}

func (m *Session) RefreshResult(result string) {
	if m == nil {
		return
	}
	m.refreshResults.WithLabelValues(result).Inc()
}

func (m *Session) TimerArmed() {
	if m == nil {
		return
	}
	m.timersArmed.Inc()
}

func (m *Session) Expired() {
	if m == nil {
		return
	}
	m.expirations.Inc()
}

func (m *Session) SetLoggedIn(v bool) {
	if m == nil {
		return
	}
	m.loggedIn.Set(boolToFloat(v))
}

func (m *Session) SetAdmin(v bool) {
	if m == nil {
		return
	}
	m.admin.Set(boolToFloat(v))
}

func boolToFloat(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
