package providers

import (
	"fsd/internal/structures"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits(view string)
	IncCacheMisses(view string)
	ObservePersistenceDuration(duration time.Duration)
	IncRefreshTotal(result string)
	ObserveRefreshDuration(duration time.Duration)
	IncCoalescedRequests()
	IncFetchFailures()
	IncNotifications(count int)
	SetLiveFavorites(count int)
	SetSubscribers(count int)
	IncDroppedMessages()
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           *prometheus.CounterVec
	cacheMisses         *prometheus.CounterVec
	persistenceDuration prometheus.Histogram
	refreshTotal        *prometheus.CounterVec
	refreshDuration     prometheus.Histogram
	coalescedRequests   prometheus.Counter
	fetchFailures       prometheus.Counter
	notifications       prometheus.Counter
	liveFavorites       prometheus.Gauge
	subscribers         prometheus.Gauge
	droppedMessages     prometheus.Counter
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits(view string) {
	m.cacheHits.WithLabelValues(view).Inc()
}

func (m *MetricsProvider) IncCacheMisses(view string) {
	m.cacheMisses.WithLabelValues(view).Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncRefreshTotal(result string) {
	m.refreshTotal.WithLabelValues(result).Inc()
}

func (m *MetricsProvider) ObserveRefreshDuration(duration time.Duration) {
	m.refreshDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCoalescedRequests() {
	m.coalescedRequests.Inc()
}

func (m *MetricsProvider) IncFetchFailures() {
	m.fetchFailures.Inc()
}

func (m *MetricsProvider) IncNotifications(count int) {
	m.notifications.Add(float64(count))
}

func (m *MetricsProvider) SetLiveFavorites(count int) {
	m.liveFavorites.Set(float64(count))
}

func (m *MetricsProvider) SetSubscribers(count int) {
	m.subscribers.Set(float64(count))
}

func (m *MetricsProvider) IncDroppedMessages() {
	m.droppedMessages.Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fsd_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fsd_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fsd_cache_hits_total",
			Help: "Rendered view cache hits by view",
		}, []string{"view"}),

		cacheMisses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fsd_cache_misses_total",
			Help: "Rendered view cache misses by view",
		}, []string{"view"}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsd_persistence_duration_seconds",
			Help:    "Duration of live cache persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		refreshTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fsd_refresh_total",
			Help: "Total number of refresh cycles by result",
		}, []string{"result"}),

		refreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fsd_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		coalescedRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fsd_coalesced_requests_total",
			Help: "Snapshot requests that joined an in-flight refresh",
		}),

		fetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fsd_fetch_failures_total",
			Help: "Per-login status fetches that fell back to offline",
		}),

		notifications: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fsd_notifications_total",
			Help: "Newly-live entries delivered as toasts",
		}),

		liveFavorites: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fsd_live_favorites",
			Help: "Favorites currently live after category filtering (badge count)",
		}),

		subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fsd_push_subscribers",
			Help: "Currently registered push subscribers",
		}),

		droppedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fsd_push_dropped_messages_total",
			Help: "Push messages dropped because a subscriber queue was full",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits(_ string)                            {}
func (n *noopMetrics) IncCacheMisses(_ string)                          {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncRefreshTotal(_ string)                         {}
func (n *noopMetrics) ObserveRefreshDuration(_ time.Duration)           {}
func (n *noopMetrics) IncCoalescedRequests()                            {}
func (n *noopMetrics) IncFetchFailures()                                {}
func (n *noopMetrics) IncNotifications(_ int)                           {}
func (n *noopMetrics) SetLiveFavorites(_ int)                           {}
func (n *noopMetrics) SetSubscribers(_ int)                             {}
func (n *noopMetrics) IncDroppedMessages()                              {}
