// Package engine keeps the local view of channels, members and messages in
// step with the Slack API. Every network operation runs on its own
// goroutine; results reach the UI loop only through Events.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m96-chan/slackline/internal/cache"
	"github.com/m96-chan/slackline/internal/markdown"
	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/paginate"
	"github.com/m96-chan/slackline/internal/users"
)

// API is the subset of the Slack client the engine drives.
type API interface {
	ListChannels(ctx context.Context, cursor string, pageSize int) ([]model.Channel, string, error)
	ListMembers(ctx context.Context, channelID, cursor string, pageSize int) ([]string, string, error)
	GetChannelInfo(ctx context.Context, channelID string) (model.Channel, error)
	JoinChannel(ctx context.Context, channelID string) error
	ListHistory(ctx context.Context, channelID string, limit int) ([]model.Message, error)
	PostMessage(ctx context.Context, channelID, text string) error
	GetUser(ctx context.Context, userID string) (model.UserFields, error)
}

// ChannelStore persists the channel list between runs.
type ChannelStore interface {
	Load(ctx context.Context) (*cache.Snapshot, error)
	Save(ctx context.Context, snap cache.Snapshot) error
}

// Config tunes the engine. Zero fields take the defaults below.
type Config struct {
	HistoryLimit    int
	PollInterval    time.Duration
	RefreshInterval time.Duration
	PageSize        int
	ProgressEvery   int
	RequestTimeout  time.Duration
	EventBuffer     int
	// ResolveWorkers bounds concurrent user lookups per batch.
	ResolveWorkers int
}

const (
	DefaultHistoryLimit    = 100
	DefaultPollInterval    = 2 * time.Second
	DefaultRefreshInterval = 30 * time.Second
	DefaultPageSize        = 200
	DefaultRequestTimeout  = 15 * time.Second
	defaultEventBuffer     = 256
	defaultResolveWorkers  = 8
)

func (c *Config) applyDefaults() {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = paginate.DefaultProgressEvery
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = defaultEventBuffer
	}
	if c.ResolveWorkers <= 0 {
		c.ResolveWorkers = defaultResolveWorkers
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore enables the on-disk channel cache.
func WithStore(store ChannelStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithSleep replaces the rate-limit backoff sleeper.
func WithSleep(fn paginate.SleepFunc) Option {
	return func(e *Engine) { e.sleep = fn }
}

// Engine is the synchronization core behind the chat view.
type Engine struct {
	api   API
	users *users.Directory
	tr    *markdown.Translator
	store ChannelStore
	cfg   Config
	sleep paginate.SleepFunc

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	gen           uint64
	watch         *watch
	channelNames  map[string]string
	refreshCancel context.CancelFunc
	membersCancel context.CancelFunc
	membersGen    uint64
	closed        bool
}

// New creates an Engine. dir and tr are shared with the UI; the engine is
// the only writer of dir.
func New(api API, dir *users.Directory, tr *markdown.Translator, cfg Config, opts ...Option) *Engine {
	cfg.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		api:          api,
		users:        dir,
		tr:           tr,
		cfg:          cfg,
		sleep:        paginate.Sleep,
		events:       make(chan Event, cfg.EventBuffer),
		ctx:          ctx,
		cancel:       cancel,
		channelNames: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events is the single hand-off from workers to the UI loop. It is closed
// by Close once every worker has returned.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Close stops every worker and waits for them.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	close(e.events)
}

// ChannelName returns the cached name for channelID, or "".
func (e *Engine) ChannelName(channelID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channelNames[channelID]
}

func (e *Engine) setChannels(channels []model.Channel) {
	names := make(map[string]string, len(channels))
	for _, ch := range channels {
		names[ch.ID] = ch.Name
	}
	e.mu.Lock()
	e.channelNames = names
	e.mu.Unlock()
}

func (e *Engine) channelMap() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channelNames
}

// spawn runs fn on a tracked goroutine unless the engine is closed.
func (e *Engine) spawn(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		fn()
	}()
}

func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
	}
}

func (e *Engine) status(kind StatusKind, format string, args ...any) {
	e.emit(StatusEvent{Kind: kind, Text: fmt.Sprintf(format, args...)})
}

// call runs one remote operation under the rate-limit retry discipline.
// Backoff sleeps stop with ctx; the request itself runs under the engine
// context with the configured timeout, so a superseded caller discards the
// result instead of aborting it.
func call[T any](e *Engine, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	return paginate.Do(ctx, func(context.Context) (T, error) {
		rctx, cancel := context.WithTimeout(e.ctx, e.cfg.RequestTimeout)
		defer cancel()
		return fn(rctx)
	}, paginate.WithSleep(e.sleep))
}

// resolveAll resolves every distinct user ID concurrently.
func (e *Engine) resolveAll(ids []string) {
	seen := make(map[string]bool, len(ids))
	g := new(errgroup.Group)
	g.SetLimit(e.cfg.ResolveWorkers)
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			e.users.Resolve(e.ctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("user resolution failed", "error", err)
	}
}
