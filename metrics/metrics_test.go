package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollocation_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCollocation(reg)

	m.ObserveSuggestion("taxonomy_usage")
	m.ObserveSuggestion("")
	m.ObserveClaim("claimed")
	m.ObserveReorder("scaffali", "accepted")

	require.Equal(t, 1.0, testutil.ToFloat64(m.suggestions.WithLabelValues("taxonomy_usage")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.suggestions.WithLabelValues("none")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.claims.WithLabelValues("claimed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reorders.WithLabelValues("scaffali", "accepted")))
}

func TestCollocation_NilIsNoop(t *testing.T) {
	var m *Collocation
	m.ObserveSuggestion("first_unit")
	m.ObserveClaim("failed")
	m.ObserveReorder("x", "rejected")
}
