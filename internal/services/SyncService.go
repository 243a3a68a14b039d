package services

import (
	"context"
	"errors"
	"fmt"
	"fsd/internal/grouping"
	"fsd/internal/models"
	"fsd/internal/providers"
	"fsd/internal/structures"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

const (
	defaultTTL = 60 * time.Second
	refreshKey = "refresh"
)

var ErrStateUnavailable = errors.New("persisted state unavailable")

// StateStoreInterface is the persisted-state collaborator read at the start
// of every refresh.
type StateStoreInterface interface {
	LoadState() (*models.State, error)
	SaveLiveCache(record *models.CacheRecord) error
}

type SyncServiceInterface interface {
	GetSnapshot(ctx context.Context, forceRefresh bool, reason Reason) (*models.Snapshot, error)
	Seed(record *models.CacheRecord)
	LiveCache() *models.CacheRecord
	Stats() SyncStats
}

type SyncStats struct {
	Refreshes       int64     `json:"refreshes"`
	FetchBatches    int64     `json:"fetchBatches"`
	FailedRefreshes int64     `json:"failedRefreshes"`
	LastRefresh     time.Time `json:"lastRefresh"`
	Favorites       int       `json:"favorites"`
	Live            int       `json:"live"`
}

// SyncService owns the live-status cache. Readers only ever see complete
// generations: cache and snapshot are swapped together under mu, and at most
// one refresh runs at a time with concurrent callers sharing its result.
type SyncService struct {
	mu       sync.RWMutex
	cache    *models.CacheRecord
	snapshot *models.Snapshot
	inflight singleflight.Group

	// running is set under mu before a refresh is handed to inflight and
	// cleared, together with the inflight key, once it has finished.
	running     bool
	generation  uint64
	refreshedAt time.Time

	ttl       time.Duration
	now       func() time.Time
	store     StateStoreInterface
	fetcher   StatusFetcherInterface
	notifier  NotifierInterface
	publisher PublisherInterface
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface

	refreshes atomic.Int64
	failures  atomic.Int64
	batches   atomic.Int64
}

func (s *SyncService) GetSnapshot(ctx context.Context, forceRefresh bool, reason Reason) (*models.Snapshot, error) {
	if !forceRefresh {
		s.mu.RLock()
		snap, ok := s.freshLocked()
		s.mu.RUnlock()
		if ok {
			return snap, nil
		}
	}

	s.mu.Lock()
	// Once a refresh is running every caller joins it, fresh cache or not.
	if !forceRefresh {
		if snap, ok := s.freshLocked(); ok {
			s.mu.Unlock()
			return snap, nil
		}
	}
	s.running = true
	ch := s.inflight.DoChan(refreshKey, func() (interface{}, error) {
		defer s.finishRefresh()
		return s.refresh(reason)
	})
	s.mu.Unlock()

	select {
	case res := <-ch:
		if res.Shared {
			s.metrics.IncCoalescedRequests()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.Snapshot).Clone(), nil
	case <-ctx.Done():
		// The refresh keeps running and still updates the cache.
		return nil, ctx.Err()
	}
}

// finishRefresh drops the inflight key under mu, so a caller that saw
// running set has always joined the call that is ending, and a caller that
// sees it cleared starts a new one.
func (s *SyncService) finishRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight.Forget(refreshKey)
	s.running = false
}

// freshLocked requires mu. Age is measured from the local swap time, not the
// record timestamp, which may have been clamped to a seeded future value.
func (s *SyncService) freshLocked() (*models.Snapshot, bool) {
	if s.running || s.snapshot == nil || s.cache == nil {
		return nil, false
	}
	if s.now().Sub(s.refreshedAt) >= s.ttl {
		return nil, false
	}
	return s.snapshot.Clone(), true
}

func (s *SyncService) refresh(reason Reason) (*models.Snapshot, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveRefreshDuration(time.Since(start)) }()

	state, err := s.store.LoadState()
	if err != nil {
		s.failures.Inc()
		s.metrics.IncRefreshTotal("error")
		s.logger.Errorf(providers.TypeSync, "Refresh (%s) aborted, state unreadable: %s", reason, err)
		return nil, fmt.Errorf("%w: %v", ErrStateUnavailable, err)
	}
	state = state.Clone()

	logins := make([]string, 0, len(state.Favorites))
	for login := range state.Favorites {
		logins = append(logins, login)
	}
	sort.Strings(logins)

	s.batches.Inc()
	results := FetchAll(context.Background(), s.fetcher, logins)

	live := make(map[string]models.LiveEntry, len(logins))
	failed := 0
	for _, login := range logins {
		res := results[login]
		if res.Err != nil {
			failed++
			s.metrics.IncFetchFailures()
			fav := state.Favorites[login]
			avatar := fav.AvatarURL
			if avatar == "" {
				avatar = res.Entry.AvatarURL
			}
			live[login] = models.OfflineEntry(login, fav.DisplayName, avatar)
			continue
		}
		entry := res.Entry
		entry.Login = login
		live[login] = entry
	}

	s.mu.Lock()
	prev := s.cache
	ts := s.now()
	if prev != nil && ts.Before(prev.Timestamp) {
		ts = prev.Timestamp
	}
	record := &models.CacheRecord{LiveData: live, Timestamp: ts}
	snap := models.NewSnapshot(state, record)
	s.generation++
	snap.Generation = s.generation
	s.cache = record
	s.snapshot = snap
	s.refreshedAt = s.now()
	s.mu.Unlock()

	var prevLive map[string]models.LiveEntry
	if prev != nil {
		prevLive = prev.LiveData
	}
	newly := DetectNewlyLive(prevLive, live, state.Favorites, reason)
	liveCount := grouping.CountLive(state.Favorites, live)
	s.notifier.Notify(newly, liveCount, state.Preferences)
	s.publisher.Publish(PushMessage{Type: MessagePushState, Snapshot: snap.Clone()})

	persistStart := time.Now()
	if err := s.store.SaveLiveCache(record); err != nil {
		s.logger.Warnf(providers.TypeSync, "Unable to persist live cache: %s", err)
	} else {
		s.metrics.ObservePersistenceDuration(time.Since(persistStart))
	}

	s.refreshes.Inc()
	s.metrics.IncRefreshTotal("ok")
	s.logger.Infof(providers.TypeSync, "Refresh (%s) done: %d favorites, %d live, %d failed fetches, %d new",
		reason, len(logins), liveCount, failed, len(newly))
	return snap, nil
}

// Seed installs a previously persisted cache generation. It is used as the
// baseline for transition detection and never produces a snapshot by itself.
func (s *SyncService) Seed(record *models.CacheRecord) {
	if record == nil {
		return
	}
	seeded := &models.CacheRecord{
		LiveData:  models.CloneLiveData(record.LiveData),
		Timestamp: record.Timestamp,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache != nil {
		return
	}
	s.cache = seeded
}

// LiveCache returns a copy of the current cache generation, or nil.
func (s *SyncService) LiveCache() *models.CacheRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache == nil {
		return nil
	}
	return &models.CacheRecord{
		LiveData:  models.CloneLiveData(s.cache.LiveData),
		Timestamp: s.cache.Timestamp,
	}
}

func (s *SyncService) Stats() SyncStats {
	stats := SyncStats{
		Refreshes:       s.refreshes.Load(),
		FetchBatches:    s.batches.Load(),
		FailedRefreshes: s.failures.Load(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot != nil {
		stats.LastRefresh = s.snapshot.Timestamp
		stats.Favorites = len(s.snapshot.Favorites)
		stats.Live = grouping.CountLive(s.snapshot.Favorites, s.snapshot.LiveData)
	}
	return stats
}

func NewSyncService(conf *structures.Config, store StateStoreInterface, fetcher StatusFetcherInterface, notifier NotifierInterface, publisher PublisherInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) SyncServiceInterface {
	ttl := conf.Sync.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SyncService{
		ttl:       ttl,
		now:       time.Now,
		store:     store,
		fetcher:   fetcher,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}
