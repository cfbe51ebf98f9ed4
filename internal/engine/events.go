package engine

import "github.com/m96-chan/slackline/internal/model"

// Event is anything the engine hands to the UI loop.
type Event interface {
	event()
}

// StatusKind tags a status line.
type StatusKind int

const (
	StatusLoading StatusKind = iota
	StatusSuccess
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "loading"
	}
}

// StatusEvent is a human-readable progress or result line.
type StatusEvent struct {
	Kind StatusKind
	Text string
}

// RenderedMessage is a message ready for display.
type RenderedMessage struct {
	TS       string
	AuthorID string
	Author   string
	// Display is the full tview-formatted line including the author prefix.
	Display string
}

// MessagesEvent carries a batch for the watched channel, oldest first.
// Reset means the batch replaces whatever the UI is showing.
type MessagesEvent struct {
	ChannelID string
	Reset     bool
	Messages  []RenderedMessage
}

// MembershipEvent reports whether the bot belongs to the watched channel.
type MembershipEvent struct {
	ChannelID  string
	Membership model.Membership
}

// ChannelsEvent carries the full channel list.
type ChannelsEvent struct {
	Channels  []model.Channel
	FromCache bool
}

// MembersEvent carries the resolved members of a channel, sorted by name.
type MembersEvent struct {
	ChannelID string
	Members   []model.User
}

// SentEvent reports the outcome of Send.
type SentEvent struct {
	ChannelID string
	OK        bool
}

func (StatusEvent) event()     {}
func (MessagesEvent) event()   {}
func (MembershipEvent) event() {}
func (ChannelsEvent) event()   {}
func (MembersEvent) event()    {}
func (SentEvent) event()       {}
