package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/m96-chan/slackline/internal/cache"
	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/paginate"
)

// refreshMode selects how loudly a channel fetch reports itself.
type refreshMode int

const (
	// refreshInitial is the first fetch with nothing cached: progress and
	// rate-limit waits are reported.
	refreshInitial refreshMode = iota
	// refreshOverCache is the first fetch while cached channels are shown.
	refreshOverCache
	// refreshPeriodic is a timer-driven fetch; only the list is emitted.
	refreshPeriodic
)

// RefreshChannels serves the cached channel list, fetches a fresh one in the
// background and keeps refreshing it on a timer until ctx is done or the
// engine closes. Calling it again replaces the running refresher.
func (e *Engine) RefreshChannels(ctx context.Context) {
	rctx, cancel := context.WithCancel(e.ctx)
	stop := context.AfterFunc(ctx, cancel)

	e.mu.Lock()
	if e.refreshCancel != nil {
		e.refreshCancel()
	}
	e.refreshCancel = cancel
	e.mu.Unlock()

	e.spawn(func() {
		defer stop()
		defer cancel()
		e.refreshLoop(rctx)
	})
}

func (e *Engine) refreshLoop(ctx context.Context) {
	mode := refreshInitial
	cached := 0

	if snap := e.loadCache(ctx); snap != nil {
		cached = len(snap.Channels)
		mode = refreshOverCache
		e.setChannels(snap.Channels)
		e.emit(ChannelsEvent{Channels: snap.Channels, FromCache: true})
		e.status(StatusSuccess, "%d channels loaded from cache", cached)
	}

	for {
		if n, ok := e.refreshOnce(ctx, mode, cached); ok {
			cached = n
			mode = refreshPeriodic
		}

		timer := time.NewTimer(e.cfg.RefreshInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (e *Engine) loadCache(ctx context.Context) *cache.Snapshot {
	if e.store == nil {
		return nil
	}
	snap, err := e.store.Load(ctx)
	if err != nil {
		slog.Warn("failed to load channel cache", "error", err)
		return nil
	}
	return snap
}

// refreshOnce fetches every channel page. On success it replaces the cache
// and returns the new count. A failed walk is never persisted.
func (e *Engine) refreshOnce(ctx context.Context, mode refreshMode, cached int) (int, bool) {
	loud := mode == refreshInitial
	if loud {
		e.status(StatusLoading, "Loading channels...")
	}

	opts := []paginate.Option{paginate.WithSleep(e.sleep)}
	if loud {
		opts = append(opts,
			paginate.WithProgress(e.cfg.ProgressEvery, func(count int) {
				e.status(StatusLoading, "Loading channels... (%d loaded so far)", count)
			}),
			paginate.WithRateLimitNotify(func(wait time.Duration, count int) {
				e.status(StatusLoading, "Rate limited. Waiting %s... (Loaded %d so far)", wait, count)
			}),
		)
	}

	channels, err := paginate.FetchAll(ctx, func(_ context.Context, cursor string) (paginate.Page[model.Channel], error) {
		rctx, cancel := context.WithTimeout(e.ctx, e.cfg.RequestTimeout)
		defer cancel()
		items, next, err := e.api.ListChannels(rctx, cursor, e.cfg.PageSize)
		return paginate.Page[model.Channel]{Items: items, NextCursor: next}, err
	}, opts...)
	if ctx.Err() != nil {
		return 0, false
	}
	if channels == nil {
		channels = []model.Channel{}
	}

	if err != nil {
		slog.Warn("failed to fetch channels", "loaded", len(channels), "error", err)
		if mode == refreshPeriodic {
			return 0, false
		}
		if loud && len(channels) > 0 {
			e.setChannels(channels)
			e.emit(ChannelsEvent{Channels: channels})
		}
		e.status(StatusError, "Error fetching channels: %v (Loaded %d so far)", err, len(channels))
		return 0, false
	}

	if e.store != nil {
		if err := e.store.Save(ctx, cache.Snapshot{Channels: channels}); err != nil {
			slog.Error("failed to save channel cache", "error", err)
		}
	}
	e.setChannels(channels)
	e.emit(ChannelsEvent{Channels: channels})

	switch mode {
	case refreshInitial:
		e.status(StatusSuccess, "Loaded %d channels. Start typing to search.", len(channels))
	case refreshOverCache:
		e.status(StatusSuccess, "Finished sync. %d channels loaded, %+d from cache", len(channels), len(channels)-cached)
	}
	slog.Debug("channels refreshed", "count", len(channels), "mode", mode)
	return len(channels), true
}
