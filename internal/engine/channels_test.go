package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/m96-chan/slackline/internal/cache"
	"github.com/m96-chan/slackline/internal/model"
)

func makeChannels(n int) []model.Channel {
	out := make([]model.Channel, n)
	for i := range out {
		out[i] = model.Channel{ID: fmt.Sprintf("C%04d", i), Name: fmt.Sprintf("chan-%d", i), IsMember: i%3 == 0}
	}
	return out
}

func openStore(t *testing.T, path string) *cache.Store {
	t.Helper()
	s, err := cache.Open(path)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRefreshChannels_450AcrossPagesThroughCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.db")
	api := newFakeAPI()
	api.channels = makeChannels(450)
	api.listLimitOnce["200"] = true
	sleeper := &sleepRecorder{}

	store := openStore(t, path)
	e := newTestEngine(t, api, WithStore(store), WithSleep(sleeper.sleep))
	e.RefreshChannels(context.Background())

	waitStatus(t, e, "Loading channels...")
	waitStatus(t, e, "Rate limited. Waiting 2s... (Loaded 200 so far)")
	got := waitEvent[ChannelsEvent](t, e, nil)
	if got.FromCache {
		t.Error("first list should come from the API")
	}
	if len(got.Channels) != 450 {
		t.Fatalf("got %d channels, want 450", len(got.Channels))
	}
	ids := make(map[string]bool)
	for _, ch := range got.Channels {
		ids[ch.ID] = true
	}
	if len(ids) != 450 {
		t.Errorf("got %d unique ids, want 450", len(ids))
	}
	waitStatus(t, e, "Loaded 450 channels. Start typing to search.")

	if w := sleeper.recorded(); len(w) != 1 || w[0] != 2*time.Second {
		t.Errorf("backoff waits = %v, want [2s]", w)
	}

	snap, err := store.Load(context.Background())
	if err != nil || snap == nil {
		t.Fatalf("Load = %v, %v", snap, err)
	}
	if len(snap.Channels) != 450 {
		t.Errorf("cache holds %d channels, want 450", len(snap.Channels))
	}
	e.Close()
	_ = store.Close()

	// Restart: the cache is served first, then the delta is reported.
	api2 := newFakeAPI()
	api2.channels = makeChannels(460)
	store2 := openStore(t, path)
	e2 := newTestEngine(t, api2, WithStore(store2))
	e2.RefreshChannels(context.Background())

	cached := waitEvent[ChannelsEvent](t, e2, nil)
	if !cached.FromCache || len(cached.Channels) != 450 {
		t.Errorf("cached event: fromCache=%v len=%d", cached.FromCache, len(cached.Channels))
	}
	waitStatus(t, e2, "450 channels loaded from cache")
	fresh := waitEvent[ChannelsEvent](t, e2, nil)
	if fresh.FromCache || len(fresh.Channels) != 460 {
		t.Errorf("fresh event: fromCache=%v len=%d", fresh.FromCache, len(fresh.Channels))
	}
	waitStatus(t, e2, "Finished sync. 460 channels loaded, +10 from cache")
	if name := e2.ChannelName("C0459"); name != "chan-459" {
		t.Errorf("ChannelName = %q", name)
	}
}

func TestRefreshChannels_NegativeDelta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.db")
	store := openStore(t, path)
	if err := store.Save(context.Background(), cache.Snapshot{Channels: makeChannels(5)}); err != nil {
		t.Fatal(err)
	}

	api := newFakeAPI()
	api.channels = makeChannels(3)
	e := newTestEngine(t, api, WithStore(store))
	e.RefreshChannels(context.Background())

	waitStatus(t, e, "Finished sync. 3 channels loaded, -2 from cache")
}

func TestRefreshChannels_PartialNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channels.db")
	store := openStore(t, path)

	api := newFakeAPI()
	api.channels = makeChannels(450)
	api.listErrAt = "400"
	e := newTestEngine(t, api, WithStore(store))
	e.RefreshChannels(context.Background())

	partial := waitEvent[ChannelsEvent](t, e, nil)
	if len(partial.Channels) != 400 {
		t.Errorf("partial list has %d channels, want 400", len(partial.Channels))
	}
	waitStatus(t, e, "Error fetching channels: boom (Loaded 400 so far)")

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Errorf("partial fetch was persisted: %d channels", len(snap.Channels))
	}
}

func TestRefreshChannels_PeriodicIsSilent(t *testing.T) {
	api := newFakeAPI()
	api.channels = makeChannels(2)
	e := newTestEngine(t, api)
	e.cfg.RefreshInterval = 20 * time.Millisecond
	e.RefreshChannels(context.Background())

	waitStatus(t, e, "Loaded 2 channels. Start typing to search.")
	api.set(func(f *fakeAPI) { f.channels = makeChannels(4) })

	got := waitEvent(t, e, func(c ChannelsEvent) bool { return len(c.Channels) == 4 })
	if got.FromCache {
		t.Error("periodic refresh marked as cached")
	}
	for _, ev := range drain(e) {
		if s, ok := ev.(StatusEvent); ok {
			t.Errorf("periodic refresh emitted status %q", s.Text)
		}
	}
}

func TestRefreshChannels_StopsWithContext(t *testing.T) {
	api := newFakeAPI()
	api.channels = makeChannels(1)
	e := newTestEngine(t, api)
	e.cfg.RefreshInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	e.RefreshChannels(ctx)
	waitEvent[ChannelsEvent](t, e, nil)
	cancel()

	// Close must not hang on the refresher.
	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("Close blocked after refresher context was cancelled")
	}
}
