package engine

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/m96-chan/slackline/internal/model"
)

// Phase is the state of the watched channel.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseCheckingMembership
	PhaseNotMember
	PhaseLoading
	PhasePolling
)

func (p Phase) String() string {
	switch p {
	case PhaseCheckingMembership:
		return "checking_membership"
	case PhaseNotMember:
		return "not_member"
	case PhaseLoading:
		return "loading"
	case PhasePolling:
		return "polling"
	default:
		return "stopped"
	}
}

// WatchState describes the current watch.
type WatchState struct {
	ChannelID  string
	Phase      Phase
	Membership model.Membership
	Watermark  string
}

// watch is the per-channel sync state. Fields below ctx are guarded by
// Engine.mu.
type watch struct {
	gen       uint64
	channelID string
	ctx       context.Context
	cancel    context.CancelFunc

	phase      Phase
	membership model.Membership
	watermark  string
	loaded     bool
	joining    bool
}

// State returns a snapshot of the current watch.
func (e *Engine) State() WatchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.watch
	if w == nil {
		return WatchState{Phase: PhaseStopped}
	}
	return WatchState{
		ChannelID:  w.channelID,
		Phase:      w.phase,
		Membership: w.membership,
		Watermark:  w.watermark,
	}
}

// Watch starts following channelID, replacing any previous watch.
func (e *Engine) Watch(channelID string) {
	e.mu.Lock()
	if e.watch != nil {
		e.watch.cancel()
	}
	e.gen++
	ctx, cancel := context.WithCancel(e.ctx)
	w := &watch{
		gen:       e.gen,
		channelID: channelID,
		ctx:       ctx,
		cancel:    cancel,
		phase:     PhaseCheckingMembership,
	}
	e.watch = w
	e.mu.Unlock()

	slog.Debug("watch started", "channel", channelID, "gen", w.gen)
	e.spawn(func() { e.runWatch(w) })
}

// StopWatching tears down the current watch. Results still in flight are
// discarded when they return.
func (e *Engine) StopWatching() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.watch == nil {
		return
	}
	e.watch.cancel()
	e.watch = nil
	e.gen++
}

// JoinCurrent joins the watched channel when the bot is not a member and
// starts loading its history on success.
func (e *Engine) JoinCurrent() {
	e.mu.Lock()
	w := e.watch
	if w == nil {
		e.mu.Unlock()
		e.spawn(func() { e.status(StatusError, "Error: No channel selected") })
		return
	}
	if w.phase != PhaseNotMember || w.joining {
		e.mu.Unlock()
		return
	}
	w.joining = true
	e.mu.Unlock()

	e.spawn(func() {
		e.status(StatusLoading, "Joining channel...")
		_, err := call(e, w.ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, e.api.JoinChannel(ctx, w.channelID)
		})

		e.mu.Lock()
		w.joining = false
		e.mu.Unlock()

		if !e.current(w) {
			return
		}
		if err != nil {
			slog.Warn("failed to join channel", "channel", w.channelID, "error", err)
			e.status(StatusError, "Failed to join channel: %v", err)
			e.emit(MembershipEvent{ChannelID: w.channelID, Membership: model.MembershipNotMember})
			return
		}
		e.status(StatusLoading, "Joined! Loading messages...")
		if e.joined(w) {
			e.loadAndPoll(w)
		}
	})
}

// current reports whether w is still the live watch.
func (e *Engine) current(w *watch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.watch == w && w.ctx.Err() == nil
}

func (e *Engine) setPhase(w *watch, p Phase) {
	e.mu.Lock()
	w.phase = p
	e.mu.Unlock()
}

// joined records membership after a successful join. It reports whether
// the caller must start the load-and-poll loop.
func (e *Engine) joined(w *watch) bool {
	e.mu.Lock()
	if e.watch != w || w.membership == model.MembershipMember {
		e.mu.Unlock()
		return false
	}
	w.membership = model.MembershipMember
	start := w.phase == PhaseNotMember
	if start {
		w.phase = PhaseLoading
	}
	e.mu.Unlock()

	e.emit(MembershipEvent{ChannelID: w.channelID, Membership: model.MembershipMember})
	return start
}

func (e *Engine) runWatch(w *watch) {
	e.status(StatusLoading, "Checking channel membership...")

	info, ok := e.checkMembership(w)
	if !ok {
		return
	}

	e.mu.Lock()
	if !info.IsMember && w.membership != model.MembershipMember {
		w.membership = model.MembershipNotMember
		w.phase = PhaseNotMember
		e.mu.Unlock()

		e.emit(MembershipEvent{ChannelID: w.channelID, Membership: model.MembershipNotMember})
		e.status(StatusError, "Not a member of this channel. Press Join.")
		return
	}
	w.membership = model.MembershipMember
	w.phase = PhaseLoading
	e.mu.Unlock()

	e.emit(MembershipEvent{ChannelID: w.channelID, Membership: model.MembershipMember})
	e.loadAndPoll(w)
}

// checkMembership fetches the channel info, retrying every poll interval
// until it succeeds or the watch ends. A fatal error stops the watch.
func (e *Engine) checkMembership(w *watch) (model.Channel, bool) {
	failing := false
	for {
		info, err := call(e, w.ctx, func(ctx context.Context) (model.Channel, error) {
			return e.api.GetChannelInfo(ctx, w.channelID)
		})
		if !e.current(w) {
			return model.Channel{}, false
		}
		if err == nil {
			return info, true
		}

		slog.Warn("failed to check membership", "channel", w.channelID, "error", err)
		if model.IsKind(err, model.KindFatal) {
			e.setPhase(w, PhaseStopped)
			e.status(StatusError, "Error checking channel membership: %v", err)
			return model.Channel{}, false
		}
		if !failing {
			e.status(StatusError, "Error checking channel membership: %v", err)
		}
		failing = true

		timer := time.NewTimer(e.cfg.PollInterval)
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return model.Channel{}, false
		case <-timer.C:
		}
	}
}

// loadAndPoll fetches the initial history and then polls until the watch
// is replaced or stopped.
func (e *Engine) loadAndPoll(w *watch) {
	e.status(StatusLoading, "Loading messages...")

	msgs, err := e.history(w)
	if !e.current(w) {
		return
	}
	if err != nil {
		slog.Warn("failed to load messages", "channel", w.channelID, "error", err)
		e.status(StatusError, "Error loading messages: %v", err)
	} else {
		e.deliver(w, msgs)
		e.status(StatusSuccess, "Loaded %d messages", len(msgs))
	}

	e.setPhase(w, PhasePolling)
	e.poll(w)
}

func (e *Engine) poll(w *watch) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	failing := false
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
		}
		if !e.current(w) {
			return
		}

		msgs, err := e.history(w)
		if !e.current(w) {
			return
		}
		if err != nil {
			slog.Warn("poll failed", "channel", w.channelID, "error", err)
			if !failing {
				e.status(StatusError, "Error refreshing messages: %v", err)
			}
			failing = true
			continue
		}
		failing = false
		e.deliver(w, msgs)
	}
}

func (e *Engine) history(w *watch) ([]model.Message, error) {
	return call(e, w.ctx, func(ctx context.Context) ([]model.Message, error) {
		return e.api.ListHistory(ctx, w.channelID, e.cfg.HistoryLimit)
	})
}

// deliver emits the messages of msgs newer than the watermark and advances
// it. The first delivery of a watch is a reset batch even when empty.
func (e *Engine) deliver(w *watch, msgs []model.Message) {
	e.mu.Lock()
	watermark, reset := w.watermark, !w.loaded
	e.mu.Unlock()

	fresh := newerThan(msgs, watermark)
	if len(fresh) == 0 && !reset {
		return
	}

	rendered := e.render(fresh)

	e.mu.Lock()
	if e.watch != w {
		e.mu.Unlock()
		return
	}
	w.loaded = true
	if len(fresh) > 0 {
		w.watermark = fresh[len(fresh)-1].TS
	}
	e.mu.Unlock()

	e.emit(MessagesEvent{ChannelID: w.channelID, Reset: reset, Messages: rendered})
}

// newerThan returns the messages with ts above watermark, oldest first,
// with duplicate timestamps dropped. An empty watermark admits everything.
func newerThan(msgs []model.Message, watermark string) []model.Message {
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.TS == "" {
			continue
		}
		if watermark == "" || model.CompareTS(m.TS, watermark) > 0 {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Message) int {
		return model.CompareTS(a.TS, b.TS)
	})
	return slices.CompactFunc(out, func(a, b model.Message) bool {
		return model.CompareTS(a.TS, b.TS) == 0
	})
}

// render resolves authors and translates each message for display.
func (e *Engine) render(msgs []model.Message) []RenderedMessage {
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.AuthorID)
	}
	e.resolveAll(ids)

	names := e.users.Names()
	channels := e.channelMap()
	out := make([]RenderedMessage, 0, len(msgs))
	for _, m := range msgs {
		author := names[m.AuthorID]
		if author == "" {
			author = m.AuthorID
		}
		if author == "" {
			author = "unknown"
		}
		out = append(out, RenderedMessage{
			TS:       m.TS,
			AuthorID: m.AuthorID,
			Author:   author,
			Display:  e.tr.RenderMessage(author, m.Text, names, channels),
		})
	}
	return out
}
