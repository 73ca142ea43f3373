package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/chatflow/pkg/domain"
)

const namespace = "chatflow"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	NodeVisits       *prometheus.CounterVec
	Activations      *prometheus.CounterVec
	Handoffs         *prometheus.CounterVec
	NoMatches        *prometheus.CounterVec
	Completions      *prometheus.CounterVec
	Resets           *prometheus.CounterVec
	RoutingAmbiguity *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of nodes entered by the interpreter.",
		}, []string{"flow", "variant"}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Total number of conversations started by a trigger.",
		}, []string{"flow"}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handoffs_total",
			Help:      "Total number of conversations handed to a human.",
		}, []string{"flow", "reason"}),
		NoMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "no_match_total",
			Help:      "Total number of replies that matched no transition.",
		}, []string{"flow"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Total number of conversations that reached a dead end.",
		}, []string{"flow"}),
		Resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resets_total",
			Help:      "Total number of conversations resolved externally.",
		}, []string{"flow"}),
		RoutingAmbiguity: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_ambiguity_total",
			Help:      "Total number of inbound messages matching several active flows.",
		}, []string{"tenant"}),
	}

	for _, c := range []prometheus.Collector{
		m.NodeVisits, m.Activations, m.Handoffs, m.NoMatches, m.Completions, m.Resets, m.RoutingAmbiguity,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that update the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.FlowName, string(e.Variant)).Inc()
		},
		OnActivate: func(ctx context.Context, e *domain.ConversationEvent) {
			m.Activations.WithLabelValues(e.FlowName).Inc()
		},
		OnHandoff: func(ctx context.Context, e *domain.ConversationEvent) {
			m.Handoffs.WithLabelValues(e.FlowName, e.Reason).Inc()
		},
		OnNoMatch: func(ctx context.Context, e *domain.ConversationEvent) {
			m.NoMatches.WithLabelValues(e.FlowName).Inc()
		},
		OnComplete: func(ctx context.Context, e *domain.ConversationEvent) {
			m.Completions.WithLabelValues(e.FlowName).Inc()
		},
		OnReset: func(ctx context.Context, e *domain.ConversationEvent) {
			m.Resets.WithLabelValues(e.FlowName).Inc()
		},
		OnRoutingAmbiguity: func(ctx context.Context, e *domain.RoutingAmbiguity) {
			m.RoutingAmbiguity.WithLabelValues(e.Tenant).Inc()
		},
	}
}
