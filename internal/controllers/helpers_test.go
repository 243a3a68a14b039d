package controllers

import (
	"context"
	"errors"
	"fsd/internal/models"
	"fsd/internal/services"
	"sync"
	"time"
)

type snapshotCall struct {
	Force  bool
	Reason services.Reason
}

// mockSyncService serves a fixed snapshot and records how it was asked.
type mockSyncService struct {
	mu    sync.Mutex
	snap  *models.Snapshot
	err   error
	calls []snapshotCall
	stats services.SyncStats
}

func (m *mockSyncService) GetSnapshot(_ context.Context, force bool, reason services.Reason) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, snapshotCall{Force: force, Reason: reason})
	if m.err != nil {
		return nil, m.err
	}
	return m.snap.Clone(), nil
}

func (m *mockSyncService) Seed(_ *models.CacheRecord)     {}
func (m *mockSyncService) LiveCache() *models.CacheRecord { return nil }
func (m *mockSyncService) Stats() services.SyncStats      { return m.stats }

func (m *mockSyncService) Calls() []snapshotCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]snapshotCall, len(m.calls))
	copy(out, m.calls)
	return out
}

var errUpstream = errors.New("persisted state unavailable: disk gone")

var snapshotTime = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func sampleSnapshot() *models.Snapshot {
	started := snapshotTime.Add(-5 * time.Minute)
	return &models.Snapshot{
		Favorites: map[string]models.Favorite{
			"alice": {Login: "alice", DisplayName: "Alice", Categories: []string{"music"}},
			"bob":   {Login: "bob", DisplayName: "Bob"},
			"carol": {Login: "carol", DisplayName: "Carol"},
		},
		Categories:  []models.Category{{ID: "music", Name: "Music"}},
		Preferences: models.DefaultPreferences(),
		LiveData: map[string]models.LiveEntry{
			"alice": {Login: "alice", IsLive: true, Viewers: 50, Game: "Music", StartedAt: &started},
			"bob":   {Login: "bob", IsLive: true, Viewers: 10},
			"carol": models.OfflineEntry("carol", "Carol", ""),
		},
		Timestamp:  snapshotTime,
		Generation: 1,
	}
}
