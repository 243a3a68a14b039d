package services

import (
	"fsd/internal/models"
	"fsd/internal/structures"
	"fsd/internal/testutil"
	"sync"
	"time"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []PushMessage
}

func (p *recordingPublisher) Publish(msg PushMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *recordingPublisher) ofType(t string) []PushMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []PushMessage
	for _, m := range p.msgs {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() *structures.Config {
	return &structures.Config{
		Sync: structures.SyncConfig{
			TTL:       60 * time.Second,
			NotifyMax: 2,
			BadgeCap:  99,
		},
	}
}

type syncFixture struct {
	svc     *SyncService
	store   *testutil.MockStateStore
	fetcher *testutil.MockFetcher
	pub     *recordingPublisher
	metrics *testutil.MockMetrics
	logger  *testutil.MockLogger
	clock   *fakeClock
}

func newSyncFixture(state *models.State) *syncFixture {
	f := &syncFixture{
		store:   &testutil.MockStateStore{State: state},
		fetcher: &testutil.MockFetcher{},
		pub:     &recordingPublisher{},
		metrics: &testutil.MockMetrics{},
		logger:  &testutil.MockLogger{},
		clock:   newFakeClock(),
	}
	conf := testConfig()
	notifier := NewNotifier(conf, f.pub, f.metrics, f.logger)
	f.svc = NewSyncService(conf, f.store, f.fetcher, notifier, f.pub, f.logger, f.metrics).(*SyncService)
	f.svc.now = f.clock.Now
	return f
}

func favoritesState(logins ...string) *models.State {
	st := &models.State{
		Favorites:   map[string]models.Favorite{},
		Preferences: models.DefaultPreferences(),
	}
	for _, l := range logins {
		st.Favorites[l] = models.Favorite{Login: l, DisplayName: "Fav " + l, AvatarURL: l + ".png"}
	}
	return st
}
