package observability

import (
	"context"
	"errors"

	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "colloquy"

// outcomeError labels turns that returned an error.
const outcomeError = "error"

// Metrics holds the collectors fed by the lifecycle hooks.
type Metrics struct {
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	NodeEntries  *prometheus.CounterVec
	NoMatches    *prometheus.CounterVec
	Recoveries   *prometheus.CounterVec
}

// NewMetrics creates unregistered collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "turns_total",
			Help:      "Handled inbound events by outcome.",
		}, []string{"outcome"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent handling one inbound event.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		NodeEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "node_entries_total",
			Help:      "Conversations entering a node.",
		}, []string{"node"}),
		NoMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "no_match_total",
			Help:      "Inputs no answer of the current node accepted.",
		}, []string{"node"}),
		Recoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "recoveries_total",
			Help:      "Conversations forced back to the default node by a vocabulary error.",
		}, []string{"from"}),
	}
}

// Collectors returns every collector, for custom registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Turns, m.TurnDuration, m.NodeEntries, m.NoMatches, m.Recoveries}
}

// Register adds the collectors to reg.
// Collectors already registered by an earlier call are accepted.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

// MustRegister is Register that panics on error.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	if err := m.Register(reg); err != nil {
		panic(err)
	}
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.NodeEntries.WithLabelValues(e.NodeID).Inc()
		},
		OnNoMatch: func(_ context.Context, e *domain.NodeEvent) {
			m.NoMatches.WithLabelValues(e.NodeID).Inc()
		},
		OnRecover: func(_ context.Context, e *domain.TurnEvent) {
			m.Recoveries.WithLabelValues(e.From).Inc()
		},
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			outcome := string(e.Outcome)
			if e.Err != nil || outcome == "" {
				outcome = outcomeError
			}
			m.Turns.WithLabelValues(outcome).Inc()
			m.TurnDuration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
		},
	}
}
