package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m96-chan/slackline/internal/markdown"
	"github.com/m96-chan/slackline/internal/model"
)

// Send posts text to the watched channel, joining it first when needed.
// The outcome arrives as a StatusEvent followed by a SentEvent.
func (e *Engine) Send(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	e.mu.Lock()
	w := e.watch
	var membership model.Membership
	if w != nil {
		membership = w.membership
	}
	e.mu.Unlock()

	if w == nil {
		e.spawn(func() {
			e.status(StatusError, "Error: No channel selected")
			e.emit(SentEvent{})
		})
		return
	}

	e.spawn(func() {
		ok := e.send(w, membership, text)
		e.emit(SentEvent{ChannelID: w.channelID, OK: ok})
	})
}

func (e *Engine) send(w *watch, membership model.Membership, text string) bool {
	if membership != model.MembershipMember {
		e.status(StatusLoading, "Checking channel membership...")
		info, err := call(e, e.ctx, func(ctx context.Context) (model.Channel, error) {
			return e.api.GetChannelInfo(ctx, w.channelID)
		})
		if err != nil {
			slog.Warn("failed to check membership before send", "channel", w.channelID, "error", err)
			e.status(StatusError, "Error sending message: %v", err)
			return false
		}
		if !info.IsMember {
			e.status(StatusLoading, "Joining channel...")
			_, err := call(e, e.ctx, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, e.api.JoinChannel(ctx, w.channelID)
			})
			if err != nil {
				slog.Warn("failed to join channel before send", "channel", w.channelID, "error", err)
				e.status(StatusError, "Failed to join channel: %v", err)
				return false
			}
		}
		if e.joined(w) {
			e.spawn(func() { e.loadAndPoll(w) })
		}
	}

	e.status(StatusLoading, "Sending message...")
	wire := markdown.ToWire(text, e.users.ReverseLookup)
	_, err := call(e, e.ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, e.api.PostMessage(ctx, w.channelID, wire)
	})
	if err != nil {
		slog.Warn("failed to send message", "channel", w.channelID, "error", err)
		e.status(StatusError, "Failed to send message: %v", err)
		return false
	}

	name := e.ChannelName(w.channelID)
	if name == "" {
		name = w.channelID
	}
	slog.Debug("message sent", "channel", w.channelID)
	e.status(StatusSuccess, "Message sent to #%s", name)
	return true
}
