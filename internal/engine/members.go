package engine

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/paginate"
)

// LoadMembers fetches and resolves the members of channelID. A new call
// supersedes one still running.
func (e *Engine) LoadMembers(channelID string) {
	e.mu.Lock()
	if e.membersCancel != nil {
		e.membersCancel()
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.membersCancel = cancel
	e.membersGen++
	gen := e.membersGen
	e.mu.Unlock()

	e.spawn(func() {
		defer cancel()
		e.loadMembers(ctx, gen, channelID)
	})
}

func (e *Engine) loadMembers(ctx context.Context, gen uint64, channelID string) {
	e.status(StatusLoading, "Loading members...")

	ids, err := paginate.FetchAll(ctx, func(_ context.Context, cursor string) (paginate.Page[string], error) {
		rctx, cancel := context.WithTimeout(e.ctx, e.cfg.RequestTimeout)
		defer cancel()
		ids, next, err := e.api.ListMembers(rctx, channelID, cursor, e.cfg.PageSize)
		return paginate.Page[string]{Items: ids, NextCursor: next}, err
	}, paginate.WithSleep(e.sleep))
	if !e.membersCurrent(ctx, gen) {
		return
	}

	e.resolveAll(ids)
	names := e.users.Names()
	members := make([]model.User, 0, len(ids))
	for _, id := range ids {
		name := names[id]
		if name == "" {
			name = id
		}
		members = append(members, model.User{ID: id, DisplayName: name})
	}
	slices.SortFunc(members, func(a, b model.User) int {
		if c := strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})

	if !e.membersCurrent(ctx, gen) {
		return
	}
	e.emit(MembersEvent{ChannelID: channelID, Members: members})
	if err != nil {
		slog.Warn("failed to load members", "channel", channelID, "loaded", len(members), "error", err)
		e.status(StatusError, "Error loading members: %v (Loaded %d so far)", err, len(members))
		return
	}
	e.status(StatusSuccess, "Loaded %d members", len(members))
}

func (e *Engine) membersCurrent(ctx context.Context, gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ctx.Err() == nil && e.membersGen == gen
}
