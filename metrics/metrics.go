package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collocation groups the counters exposed by the shelving subsystem. A nil
// *Collocation is valid and records nothing.
type Collocation struct {
	suggestions *prometheus.CounterVec
	claims      *prometheus.CounterVec
	reorders    *prometheus.CounterVec
}

// NewCollocation registers the collocation counters on reg.
func NewCollocation(reg prometheus.Registerer) *Collocation {
	m := &Collocation{
		suggestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collocation",
			Name:      "suggestions_total",
			Help:      "Placement suggestions by the tier that produced them.",
		}, []string{"reason"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collocation",
			Name:      "ordinal_claims_total",
			Help:      "Ordinal claims and assignments by outcome.",
		}, []string{"outcome"}),
		reorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "collocation",
			Name:      "reorders_total",
			Help:      "Sibling reorder requests by hierarchy kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.suggestions, m.claims, m.reorders)
	return m
}

func (m *Collocation) ObserveSuggestion(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "none"
	}
	m.suggestions.WithLabelValues(reason).Inc()
}

func (m *Collocation) ObserveClaim(outcome string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(outcome).Inc()
}

func (m *Collocation) ObserveReorder(kind, outcome string) {
	if m == nil {
		return
	}
	m.reorders.WithLabelValues(kind, outcome).Inc()
}
