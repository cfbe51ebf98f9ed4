package engine

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/m96-chan/slackline/internal/markdown"
	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/users"
)

var errBoom = errors.New("boom")

type post struct {
	channelID string
	text      string
}

// fakeAPI is an in-memory Slack workspace.
type fakeAPI struct {
	mu sync.Mutex

	channels      []model.Channel
	listLimitOnce map[string]bool // cursors that return rate-limited once
	listErrAt     string          // cursor that fails with errBoom

	members map[string][]string
	info    map[string]model.Channel
	infoErr error

	joinErr error
	joined  []string

	history      map[string][]model.Message // newest first
	historyErr   error
	historyCalls map[string]int

	postErr error
	posted  []post

	users map[string]model.UserFields
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		listLimitOnce: make(map[string]bool),
		members:       make(map[string][]string),
		info:          make(map[string]model.Channel),
		history:       make(map[string][]model.Message),
		historyCalls:  make(map[string]int),
		users:         make(map[string]model.UserFields),
	}
}

func (f *fakeAPI) ListChannels(_ context.Context, cursor string, pageSize int) ([]model.Channel, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listLimitOnce[cursor] {
		delete(f.listLimitOnce, cursor)
		return nil, "", model.RateLimited("conversations.list", 2*time.Second)
	}
	if f.listErrAt != "" && cursor == f.listErrAt {
		return nil, "", errBoom
	}

	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+pageSize, len(f.channels))
	next := ""
	if end < len(f.channels) {
		next = strconv.Itoa(end)
	}
	return slices.Clone(f.channels[start:end]), next, nil
}

func (f *fakeAPI) ListMembers(_ context.Context, channelID, cursor string, pageSize int) ([]string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.members[channelID]
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := min(start+pageSize, len(all))
	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}
	return slices.Clone(all[start:end]), next, nil
}

func (f *fakeAPI) GetChannelInfo(_ context.Context, channelID string) (model.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.infoErr != nil {
		return model.Channel{}, f.infoErr
	}
	ch, ok := f.info[channelID]
	if !ok {
		return model.Channel{ID: channelID, IsMember: true}, nil
	}
	return ch, nil
}

func (f *fakeAPI) JoinChannel(_ context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.joinErr != nil {
		return f.joinErr
	}
	f.joined = append(f.joined, channelID)
	ch := f.info[channelID]
	ch.ID = channelID
	ch.IsMember = true
	f.info[channelID] = ch
	return nil
}

func (f *fakeAPI) ListHistory(_ context.Context, channelID string, limit int) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls[channelID]++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	msgs := f.history[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return slices.Clone(msgs), nil
}

func (f *fakeAPI) PostMessage(_ context.Context, channelID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, post{channelID, text})
	return nil
}

func (f *fakeAPI) GetUser(_ context.Context, userID string) (model.UserFields, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return model.UserFields{}, errors.New("user_not_found")
	}
	return u, nil
}

// addMessages prepends msgs (given oldest first) to the channel history.
func (f *fakeAPI) addMessages(channelID string, msgs ...model.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.history[channelID] = append([]model.Message{m}, f.history[channelID]...)
	}
}

func (f *fakeAPI) calls(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls[channelID]
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func msg(ts, author, text string) model.Message {
	return model.Message{TS: ts, AuthorID: author, Text: text}
}

// sleepRecorder replaces backoff sleeps and records their durations.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.waits)
}

func newTestEngine(t *testing.T, api *fakeAPI, opts ...Option) *Engine {
	t.Helper()
	dir := users.NewDirectory(api)
	tr := markdown.NewTranslator(markdown.DefaultMarkdownColors(), "monokai")
	cfg := Config{
		PollInterval:    10 * time.Millisecond,
		RefreshInterval: time.Hour,
		RequestTimeout:  time.Second,
	}
	e := New(api, dir, tr, cfg, opts...)
	t.Cleanup(e.Close)
	return e
}

const waitTimeout = 3 * time.Second

// waitEvent reads events until one of type T satisfies match. Events of
// other types are skipped.
func waitEvent[T Event](t *testing.T, e *Engine, match func(T) bool) T {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if v, ok := ev.(T); ok && (match == nil || match(v)) {
				return v
			}
		case <-deadline:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
		}
	}
}

func waitStatus(t *testing.T, e *Engine, text string) StatusEvent {
	t.Helper()
	return waitEvent(t, e, func(s StatusEvent) bool { return s.Text == text })
}

// eventually polls cond until it holds or the test times out.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// drain returns every event currently buffered.
func drain(e *Engine) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func timestamps(msgs []RenderedMessage) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.TS)
	}
	return out
}
