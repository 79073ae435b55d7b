package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MoveApplied      = "applied"
	MoveNotYourTurn  = "not_your_turn"
	MoveCellTaken    = "cell_taken"
	MoveInvalid      = "invalid"
	MoveAfterFinish  = "game_finished"
	labelResult      = "result"
	labelOutcome     = "outcome"
	defaultNamespace = "tictactoe"
)

// Metrics is safe to use through a nil pointer, in which case nothing is recorded.
type Metrics struct {
	Moves             *prometheus.CounterVec
	OnlineSessions    prometheus.Gauge
	BroadcastFailures prometheus.Counter
	GamesFinished     *prometheus.CounterVec
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &Metrics{
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Number of move commands by result",
		}, []string{labelResult}),
		OnlineSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online_sessions",
			Help:      "Number of connected player sessions",
		}),
		BroadcastFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_failures_total",
			Help:      "Number of failed per-recipient broadcast deliveries",
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Number of finished games by outcome",
		}, []string{labelOutcome}),
	}

	registerer.MustRegister(
		m.Moves,
		m.OnlineSessions,
		m.BroadcastFailures,
		m.GamesFinished,
	)

	return m
}

func (m *Metrics) ObserveMove(result string) {
	if m == nil {
		return
	}
	m.Moves.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.OnlineSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.OnlineSessions.Dec()
}

func (m *Metrics) BroadcastFailed() {
	if m == nil {
		return
	}
	m.BroadcastFailures.Inc()
}

func (m *Metrics) GameFinished(outcome string) {
	if m == nil {
		return
	}
	m.GamesFinished.WithLabelValues(outcome).Inc()
}
