package testutil

import (
	"context"
	"errors"
	"fsd/internal/models"
	"fsd/internal/providers"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.Logs {
		if l.Level == level {
			n++
		}
	}
	return n
}

// MockMetrics implements providers.MetricsProviderInterface.
type MockMetrics struct {
	mu            sync.Mutex
	Refreshes     map[string]int
	Coalesced     int
	FetchFailures int
	Notifications int
	LiveFavorites int
	Subscribers   int
	CacheHits     int
	CacheMisses   int
	CacheViews    []string
	Dropped       int
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (m *MockMetrics) ObserveRefreshDuration(_ time.Duration)           {}

func (m *MockMetrics) IncCacheHits(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
	m.CacheViews = append(m.CacheViews, view)
}

func (m *MockMetrics) IncCacheMisses(view string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
	m.CacheViews = append(m.CacheViews, view)
}

func (m *MockMetrics) IncRefreshTotal(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Refreshes == nil {
		m.Refreshes = make(map[string]int)
	}
	m.Refreshes[result]++
}

func (m *MockMetrics) IncCoalescedRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Coalesced++
}

func (m *MockMetrics) IncFetchFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FetchFailures++
}

func (m *MockMetrics) IncNotifications(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications += count
}

func (m *MockMetrics) SetLiveFavorites(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LiveFavorites = count
}

func (m *MockMetrics) SetSubscribers(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subscribers = count
}

func (m *MockMetrics) IncDroppedMessages() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Dropped++
}

// MockStateStore implements services.StateStoreInterface.
type MockStateStore struct {
	mu        sync.Mutex
	State     *models.State
	LoadErr   error
	SaveErr   error
	Saved     []*models.CacheRecord
	LoadCalls int
}

func (m *MockStateStore) LoadState() (*models.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	return m.State.Clone(), nil
}

func (m *MockStateStore) SaveLiveCache(record *models.CacheRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Saved = append(m.Saved, record)
	return nil
}

func (m *MockStateStore) SetState(state *models.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.State = state
}

func (m *MockStateStore) SetLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadErr = err
}

var ErrMockFetch = errors.New("mock fetch failure")

// MockFetcher implements services.StatusFetcherInterface. Entries not listed
// in Live are reported offline; logins in Fail return ErrMockFetch. When Gate
// is set every call blocks until it is closed.
type MockFetcher struct {
	mu      sync.Mutex
	Live    map[string]models.LiveEntry
	Fail    map[string]bool
	Panic   map[string]bool
	Gate    chan struct{}
	Calls   atomic.Int64
	Started chan string
}

func (m *MockFetcher) Fetch(ctx context.Context, login string) (models.LiveEntry, error) {
	m.Calls.Inc()
	if m.Started != nil {
		select {
		case m.Started <- login:
		default:
		}
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return models.OfflineEntry(login, login, ""), ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Panic[login] {
		panic("mock fetcher panic for " + login)
	}
	if m.Fail[login] {
		return models.OfflineEntry(login, login, "default.png"), ErrMockFetch
	}
	if e, ok := m.Live[login]; ok {
		e.Login = login
		return e, nil
	}
	return models.OfflineEntry(login, login, "default.png"), nil
}

func (m *MockFetcher) SetLive(live map[string]models.LiveEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Live = live
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}
