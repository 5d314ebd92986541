package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveRebuild(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	require.NotNil(t, m)

	m.ObserveRebuild(120)
	m.ObserveRebuild(80)

	require.Equal(t, float64(2), testutil.ToFloat64(m.CacheRebuilds))
	require.Equal(t, float64(80), testutil.ToFloat64(m.CacheRows))
}

func TestMetrics_ObserveFetch(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveFetch(nil)
	m.ObserveFetch(nil)
	m.ObserveFetch(errors.New("boom"))

	require.Equal(t, float64(2), testutil.ToFloat64(m.PageFetches.WithLabelValues(ResultOK)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.PageFetches.WithLabelValues(ResultError)))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRebuild(10)
		m.ObserveFetch(nil)
	})
}

func TestMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	// Vec families are only gathered once a child exists
	m.WindowRequests.WithLabelValues("orders").Add(0)
	m.PageFetches.WithLabelValues(ResultOK).Add(0)

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 5)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	require.True(t, names["virtugrid_cache_rebuilds_total"])
	require.True(t, names["virtugrid_cache_rows"])
	require.True(t, names["virtugrid_window_requests_total"])
	require.True(t, names["virtugrid_page_fetches_total"])
	require.True(t, names["virtugrid_expansion_toggles_total"])
}
