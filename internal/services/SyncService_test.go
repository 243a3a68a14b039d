package services

import (
	"context"
	"errors"
	"fsd/internal/models"
	"fsd/internal/testutil"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncService_LiveDataKeysMatchFavorites(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob", "carol"))
	f.fetcher.Live = map[string]models.LiveEntry{"bob": {IsLive: true, Viewers: 3}}

	snap, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	keys := []string{}
	for k := range snap.LiveData {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"alice", "bob", "carol"}, keys)
	assert.True(t, snap.LiveData["bob"].IsLive)
	assert.Equal(t, "bob", snap.LiveData["bob"].Login)
	assert.Equal(t, f.clock.Now(), snap.Timestamp)
}

func TestSyncService_CachedWithinTTL(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))

	_, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Second)
	_, err = f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.svc.Stats().FetchBatches)
	assert.Equal(t, int64(2), f.fetcher.Calls.Load())
	assert.Equal(t, 1, f.store.LoadCalls)
}

func TestSyncService_RefreshAfterTTL(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	first, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	f.clock.Advance(61 * time.Second)
	second, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.svc.Stats().FetchBatches)
	assert.True(t, second.Timestamp.After(first.Timestamp))
}

func TestSyncService_ForceBypassesTTL(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	_, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	assert.Equal(t, int64(2), f.svc.Stats().FetchBatches)
}

func TestSyncService_ConcurrentForcedRefreshesCoalesce(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))
	f.fetcher.Gate = make(chan struct{})
	f.fetcher.Started = make(chan string, 2)

	var wg sync.WaitGroup
	snaps := make([]*models.Snapshot, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		snaps[i], errs[i] = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	}

	wg.Add(1)
	go call(0)
	<-f.fetcher.Started

	wg.Add(1)
	go call(1)
	time.Sleep(50 * time.Millisecond)
	close(f.fetcher.Gate)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int64(1), f.svc.Stats().FetchBatches)
	assert.Equal(t, int64(2), f.fetcher.Calls.Load())
	assert.Equal(t, snaps[0].Timestamp, snaps[1].Timestamp)
	assert.Equal(t, 2, f.metrics.Coalesced)
}

func TestSyncService_MixedForceCallersShareInFlight(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.fetcher.Gate = make(chan struct{})
	f.fetcher.Started = make(chan string, 1)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_, _ = f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
	}()
	<-f.fetcher.Started
	go func() {
		defer wg.Done()
		_, _ = f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	}()
	go func() {
		defer wg.Done()
		_, _ = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	}()
	time.Sleep(50 * time.Millisecond)
	close(f.fetcher.Gate)
	wg.Wait()

	assert.Equal(t, int64(1), f.svc.Stats().FetchBatches)
}

func TestSyncService_FreshReaderJoinsRunningRefresh(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	_, err := f.svc.GetSnapshot(context.Background(), false, ReasonStartup)
	require.NoError(t, err)

	f.fetcher.SetLive(map[string]models.LiveEntry{"alice": {IsLive: true, Viewers: 5}})
	f.fetcher.Gate = make(chan struct{})
	f.fetcher.Started = make(chan string, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
	}()
	<-f.fetcher.Started

	joined := make(chan *models.Snapshot, 1)
	go func() {
		snap, _ := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
		joined <- snap
	}()

	select {
	case <-joined:
		t.Fatal("reader returned the cached generation while a refresh was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(f.fetcher.Gate)
	<-done

	snap := <-joined
	assert.True(t, snap.LiveData["alice"].IsLive)
	assert.Equal(t, int64(2), f.svc.Stats().FetchBatches)
}

func TestSyncService_ReaderJoinsRefreshStartedByAbandonedCaller(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	first, err := f.svc.GetSnapshot(context.Background(), false, ReasonStartup)
	require.NoError(t, err)

	f.fetcher.SetLive(map[string]models.LiveEntry{"alice": {IsLive: true}})
	f.fetcher.Gate = make(chan struct{})

	// The forced caller gives up at once; its refresh must already count as
	// running when GetSnapshot returns, whether or not it has been scheduled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.svc.GetSnapshot(ctx, true, ReasonAlarm)
	require.ErrorIs(t, err, context.Canceled)

	joined := make(chan *models.Snapshot, 1)
	go func() {
		snap, _ := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
		joined <- snap
	}()

	select {
	case <-joined:
		t.Fatal("reader returned the cached generation while a refresh was registered")
	case <-time.After(50 * time.Millisecond):
	}
	close(f.fetcher.Gate)

	snap := <-joined
	require.NotNil(t, snap)
	assert.Equal(t, first.Generation+1, snap.Generation)
	assert.True(t, snap.LiveData["alice"].IsLive)
}

func TestSyncService_RunningFlagClearedAfterRefresh(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	for i := 0; i < 3; i++ {
		_, err := f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
		require.NoError(t, err)
	}

	_, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.svc.Stats().FetchBatches, "fresh read served from cache once refreshes finish")
	f.svc.mu.RLock()
	defer f.svc.mu.RUnlock()
	assert.False(t, f.svc.running)
}

func TestSyncService_GenerationAdvancesWithClampedTimestamp(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	future := f.clock.Now().Add(24 * time.Hour)
	f.svc.Seed(&models.CacheRecord{LiveData: map[string]models.LiveEntry{}, Timestamp: future})

	first, err := f.svc.GetSnapshot(context.Background(), false, ReasonStartup)
	require.NoError(t, err)
	f.fetcher.SetLive(map[string]models.LiveEntry{"alice": {IsLive: true}})
	f.clock.Advance(2 * time.Minute)
	second, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	assert.Equal(t, future, first.Timestamp)
	assert.Equal(t, future, second.Timestamp, "timestamp stays clamped to the seeded value")
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, uint64(2), second.Generation)
	assert.True(t, second.LiveData["alice"].IsLive, "TTL runs from the local refresh time")
	assert.Equal(t, int64(2), f.svc.Stats().FetchBatches)
}

func TestSyncService_FailedRefreshKeepsGeneration(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	good, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	f.store.SetLoadErr(errors.New("unreadable"))
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.Error(t, err)

	cached, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.Equal(t, good.Generation, cached.Generation)
}

func TestSyncService_StateFailureKeepsPreviousCache(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.fetcher.Live = map[string]models.LiveEntry{"alice": {IsLive: true, Viewers: 9}}

	good, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	f.store.SetLoadErr(errors.New("disk on fire"))
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStateUnavailable)

	cached, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.Equal(t, good, cached)
	assert.Equal(t, 1, f.metrics.Refreshes["error"])
	assert.Equal(t, int64(1), f.svc.Stats().FailedRefreshes)
	assert.Len(t, f.pub.ofType(MessagePushState), 1, "failed refresh publishes nothing")
}

func TestSyncService_StateFailureWithoutCache(t *testing.T) {
	f := newSyncFixture(nil)
	f.store.LoadErr = errors.New("missing")

	snap, err := f.svc.GetSnapshot(context.Background(), false, ReasonStartup)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrStateUnavailable)
	assert.Nil(t, f.svc.LiveCache())
}

func TestSyncService_FailedFetchUsesFavoriteFallback(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))
	f.fetcher.Live = map[string]models.LiveEntry{"bob": {IsLive: true, Viewers: 5}}
	f.fetcher.Fail = map[string]bool{"alice": true}

	snap, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)

	alice := snap.LiveData["alice"]
	assert.False(t, alice.IsLive)
	assert.Equal(t, 0, alice.Viewers)
	assert.Equal(t, "Fav alice", alice.DisplayName)
	assert.Equal(t, "alice.png", alice.AvatarURL)
	assert.True(t, snap.LiveData["bob"].IsLive, "sibling fetch unaffected")
	assert.Equal(t, 1, f.metrics.FetchFailures)
}

func TestSyncService_FailedFetchWithoutAvatarUsesFetcherDefault(t *testing.T) {
	st := favoritesState()
	st.Favorites["alice"] = models.Favorite{Login: "alice"}
	f := newSyncFixture(st)
	f.fetcher.Fail = map[string]bool{"alice": true}

	snap, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.Equal(t, "alice", snap.LiveData["alice"].DisplayName)
	assert.Equal(t, "default.png", snap.LiveData["alice"].AvatarURL)
}

func TestSyncService_PanickingFetchContained(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))
	f.fetcher.Live = map[string]models.LiveEntry{"bob": {IsLive: true}}
	f.fetcher.Panic = map[string]bool{"alice": true}

	snap, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.False(t, snap.LiveData["alice"].IsLive)
	assert.True(t, snap.LiveData["bob"].IsLive)
}

func TestSyncService_TimestampNeverDecreases(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	first, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)
	f.clock.Advance(-time.Hour)
	second, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	assert.False(t, second.Timestamp.Before(first.Timestamp))
}

func TestSyncService_NotifiesOnTransition(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonStartup)
	require.NoError(t, err)
	assert.Empty(t, f.pub.ofType(MessageToast))

	f.fetcher.SetLive(map[string]models.LiveEntry{"alice": {IsLive: true, Viewers: 10, Title: "hi"}})
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
	require.NoError(t, err)

	toasts := f.pub.ofType(MessageToast)
	require.Len(t, toasts, 1)
	require.Len(t, toasts[0].Entries, 1)
	assert.Equal(t, "alice", toasts[0].Entries[0].Fav.Login)
	assert.Equal(t, "Fav alice", toasts[0].Entries[0].Fav.DisplayName)
	assert.Equal(t, "hi", toasts[0].Entries[0].Live.Title)

	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
	require.NoError(t, err)
	assert.Len(t, f.pub.ofType(MessageToast), 1, "still live is not a transition")
}

func TestSyncService_InstallNeverNotifies(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.fetcher.Live = map[string]models.LiveEntry{"alice": {IsLive: true}}

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonInstall)
	require.NoError(t, err)
	assert.Empty(t, f.pub.ofType(MessageToast))
}

func TestSyncService_NotificationsCapped(t *testing.T) {
	f := newSyncFixture(favoritesState("a", "b", "c", "d", "e"))
	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonStartup)
	require.NoError(t, err)

	live := map[string]models.LiveEntry{}
	for i, l := range []string{"a", "b", "c", "d", "e"} {
		live[l] = models.LiveEntry{IsLive: true, Viewers: i}
	}
	f.fetcher.SetLive(live)
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonAlarm)
	require.NoError(t, err)

	toasts := f.pub.ofType(MessageToast)
	require.Len(t, toasts, 1)
	assert.Len(t, toasts[0].Entries, 2)
	assert.Equal(t, "e", toasts[0].Entries[0].Fav.Login)
	assert.Equal(t, "d", toasts[0].Entries[1].Fav.Login)
	assert.Equal(t, 2, f.metrics.Notifications)
}

func TestSyncService_BadgeCountFromSameGeneration(t *testing.T) {
	st := &models.State{
		Favorites:   map[string]models.Favorite{"alice": {Login: "alice", Categories: []string{}}},
		Preferences: models.DefaultPreferences(),
	}
	f := newSyncFixture(st)
	f.fetcher.Live = map[string]models.LiveEntry{"alice": {IsLive: true, Viewers: 120, Game: "Chess"}}

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	badges := f.pub.ofType(MessageBadge)
	require.Len(t, badges, 1)
	require.NotNil(t, badges[0].Count)
	assert.Equal(t, 1, *badges[0].Count)
	assert.Equal(t, 1, f.metrics.LiveFavorites)
}

func TestSyncService_PushStateCarriesSnapshot(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	snap, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	pushes := f.pub.ofType(MessagePushState)
	require.Len(t, pushes, 1)
	require.NotNil(t, pushes[0].Snapshot)
	assert.Equal(t, snap.Timestamp, pushes[0].Snapshot.Timestamp)
	assert.Contains(t, pushes[0].Snapshot.Favorites, "alice")
}

func TestSyncService_ReturnedSnapshotsAreIndependent(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	first, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	first.LiveData["alice"] = models.LiveEntry{IsLive: true, Viewers: 9999}
	delete(first.Favorites, "alice")

	second, err := f.svc.GetSnapshot(context.Background(), false, ReasonPopup)
	require.NoError(t, err)
	assert.False(t, second.LiveData["alice"].IsLive)
	assert.Contains(t, second.Favorites, "alice")
}

func TestSyncService_CancelledCallerDoesNotCancelRefresh(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.fetcher.Gate = make(chan struct{})
	f.fetcher.Started = make(chan string, 1)
	f.fetcher.Live = map[string]models.LiveEntry{"alice": {IsLive: true}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.GetSnapshot(ctx, true, ReasonPopup)
		done <- err
	}()
	<-f.fetcher.Started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(f.fetcher.Gate)
	require.Eventually(t, func() bool { return f.svc.LiveCache() != nil }, time.Second, 10*time.Millisecond)
	assert.True(t, f.svc.LiveCache().LiveData["alice"].IsLive)
}

func TestSyncService_SeedSuppressesAlreadyLive(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.fetcher.Live = map[string]models.LiveEntry{"alice": {IsLive: true}}
	f.svc.Seed(&models.CacheRecord{
		LiveData:  map[string]models.LiveEntry{"alice": {Login: "alice", IsLive: true}},
		Timestamp: f.clock.Now().Add(-time.Hour),
	})

	_, err := f.svc.GetSnapshot(context.Background(), false, ReasonAlarm)
	require.NoError(t, err)
	assert.Empty(t, f.pub.ofType(MessageToast))
	assert.Equal(t, int64(1), f.svc.Stats().FetchBatches, "seed alone never satisfies a request")
}

func TestSyncService_PersistsEveryGeneration(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)
	_, err = f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	assert.Len(t, f.store.Saved, 2)
}

func TestSyncService_PersistFailureIsNotFatal(t *testing.T) {
	f := newSyncFixture(favoritesState("alice"))
	f.store.SaveErr = errors.New("read-only fs")

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)
	assert.Equal(t, 1, f.logger.Count("warn"))
}

func TestSyncService_Stats(t *testing.T) {
	f := newSyncFixture(favoritesState("alice", "bob"))
	f.fetcher.Live = map[string]models.LiveEntry{"bob": {IsLive: true}}

	_, err := f.svc.GetSnapshot(context.Background(), true, ReasonPopup)
	require.NoError(t, err)

	stats := f.svc.Stats()
	assert.Equal(t, int64(1), stats.Refreshes)
	assert.Equal(t, 2, stats.Favorites)
	assert.Equal(t, 1, stats.Live)
	assert.Equal(t, f.clock.Now(), stats.LastRefresh)
}

var _ StateStoreInterface = (*testutil.MockStateStore)(nil)
var _ StatusFetcherInterface = (*testutil.MockFetcher)(nil)
