package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the prometheus collectors for picker sessions
type Metrics struct {
	Picks          *prometheus.CounterVec
	CommandErrors  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	ActiveClients  prometheus.Gauge
}

// New creates and registers all picker metrics
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Picks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "picker_picks_total",
				Help: "Characters picked, by team and strategy",
			},
			[]string{"team", "strategy"},
		),
		CommandErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "picker_command_errors_total",
				Help: "Commands refused by a session engine",
			},
			[]string{"command"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "picker_active_sessions",
			Help: "Sessions currently registered",
		}),
		ActiveClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "picker_active_clients",
			Help: "Websocket clients currently joined to a session",
		}),
	}

	reg.MustRegister(m.Picks, m.CommandErrors, m.ActiveSessions, m.ActiveClients)
	return m
}

// ObservePick counts a successful pick. Safe on a nil receiver.
func (m *Metrics) ObservePick(team, strategy string) {
	if m == nil {
		return
	}
	m.Picks.WithLabelValues(team, strategy).Inc()
}

// ObserveError counts a refused command. Safe on a nil receiver.
func (m *Metrics) ObserveError(command string) {
	if m == nil {
		return
	}
	m.CommandErrors.WithLabelValues(command).Inc()
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.ActiveSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.ActiveSessions.Dec()
	}
}

func (m *Metrics) ClientJoined() {
	if m != nil {
		m.ActiveClients.Inc()
	}
}

func (m *Metrics) ClientLeft() {
	if m != nil {
		m.ActiveClients.Dec()
	}
}
