package providers

import (
	"fsd/internal/structures"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withIsolatedRegistry(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	prevReg, prevGath := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer = prevReg
		prometheus.DefaultGatherer = prevGath
	})
	return reg
}

func TestNoopMetrics_WhenDisabled(t *testing.T) {
	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: false},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*noopMetrics)
	assert.True(t, ok, "should return noopMetrics when disabled")

	m.IncRequestsTotal("/snapshot", 200)
	m.ObserveRequestDuration("/snapshot", time.Millisecond)
	m.IncCacheHits("groups")
	m.IncCacheMisses("groups")
	m.ObservePersistenceDuration(time.Millisecond)
	m.IncRefreshTotal("ok")
	m.ObserveRefreshDuration(time.Millisecond)
	m.IncCoalescedRequests()
	m.IncFetchFailures()
	m.IncNotifications(2)
	m.SetLiveFavorites(3)
	m.SetSubscribers(1)
	m.IncDroppedMessages()
}

func TestMetricsProvider_WhenEnabled(t *testing.T) {
	withIsolatedRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	_, ok := m.(*MetricsProvider)
	assert.True(t, ok, "should return MetricsProvider when enabled")
}

func TestMetricsProvider_RecordsValues(t *testing.T) {
	withIsolatedRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf).(*MetricsProvider)

	m.IncRefreshTotal("ok")
	m.IncRefreshTotal("ok")
	m.IncRefreshTotal("error")
	m.IncFetchFailures()
	m.IncNotifications(2)
	m.SetLiveFavorites(7)
	m.IncCoalescedRequests()
	m.IncCacheHits("groups")
	m.IncCacheHits("groups")
	m.IncCacheMisses("groups")
	m.IncDroppedMessages()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.refreshTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.refreshTotal.WithLabelValues("error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.fetchFailures))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.notifications))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.liveFavorites))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.coalescedRequests))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.cacheHits.WithLabelValues("groups")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.cacheMisses.WithLabelValues("groups")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.droppedMessages))
}

func TestMetricsProvider_RegistersCollectors(t *testing.T) {
	reg := withIsolatedRegistry(t)

	conf := &structures.Config{
		Metrics: structures.MetricsConfig{Enabled: true},
	}
	m := NewMetricsProvider(conf)
	m.IncRequestsTotal("/groups", 200)
	m.IncRequestsTotal("/groups", 404)
	m.ObserveRequestDuration("/groups", 5*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "fsd_requests_total")
	assert.Contains(t, names, "fsd_request_duration_seconds")
}

func TestHttpStatusBucket(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{400, "4xx"},
		{404, "4xx"},
		{500, "5xx"},
		{502, "5xx"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, httpStatusBucket(tt.code))
	}
}
