package storage

import (
	"context"
	"fsd/internal/models"
	"fsd/internal/services"
	"sync"
)

type refreshCall struct {
	Force  bool
	Reason services.Reason
}

// fakeSync records calls made by the scheduler and the watcher.
type fakeSync struct {
	mu     sync.Mutex
	calls  []refreshCall
	seeded *models.CacheRecord
	cache  *models.CacheRecord
	err    error
}

func (f *fakeSync) GetSnapshot(_ context.Context, force bool, reason services.Reason) (*models.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, refreshCall{Force: force, Reason: reason})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Snapshot{}, nil
}

func (f *fakeSync) Seed(record *models.CacheRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeded = record
}

func (f *fakeSync) LiveCache() *models.CacheRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cache
}

func (f *fakeSync) Stats() services.SyncStats { return services.SyncStats{} }

func (f *fakeSync) Calls() []refreshCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]refreshCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSync) reasons() []services.Reason {
	var out []services.Reason
	for _, c := range f.Calls() {
		out = append(out, c.Reason)
	}
	return out
}
