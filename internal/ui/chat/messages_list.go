package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/engine"
	"github.com/m96-chan/slackline/internal/ui/keys"
)

const emptyChannelText = "No messages found in this channel."

// MessagesList displays the watched channel's messages, oldest first, with
// keyboard selection and scrolling.
type MessagesList struct {
	*tview.TextView
	cfg         *config.Config
	channelID   string
	messages    []engine.RenderedMessage
	loaded      bool
	selectedIdx int // -1 = no selection
}

// NewMessagesList creates a new messages list component.
func NewMessagesList(cfg *config.Config) *MessagesList {
	ml := &MessagesList{
		TextView:    tview.NewTextView(),
		cfg:         cfg,
		selectedIdx: -1,
	}

	ml.SetDynamicColors(true)
	ml.SetRegions(true)
	ml.SetScrollable(true)
	ml.SetWordWrap(true)
	ml.SetTextColor(cfg.Theme.MessagesList.Message.Foreground())
	ml.SetBorder(true).SetTitle(" Messages ")

	ml.SetInputCapture(ml.handleInput)

	return ml
}

// Clear forgets the current channel and its messages.
func (ml *MessagesList) Clear() {
	ml.channelID = ""
	ml.messages = nil
	ml.loaded = false
	ml.selectedIdx = -1
	ml.TextView.Clear()
}

// ChannelID returns the channel whose messages are shown.
func (ml *MessagesList) ChannelID() string {
	return ml.channelID
}

// Len returns the number of messages shown.
func (ml *MessagesList) Len() int {
	return len(ml.messages)
}

// Apply merges a batch from the engine. Batches for another channel are
// ignored; a reset batch replaces everything shown.
func (ml *MessagesList) Apply(ev engine.MessagesEvent) {
	if ev.Reset {
		ml.channelID = ev.ChannelID
		ml.messages = append([]engine.RenderedMessage(nil), ev.Messages...)
		ml.loaded = true
		ml.selectedIdx = -1
		ml.render()
		ml.ScrollToEnd()
		return
	}

	if ev.ChannelID != ml.channelID || len(ev.Messages) == 0 {
		return
	}
	ml.messages = append(ml.messages, ev.Messages...)
	ml.render()
	if ml.selectedIdx < 0 {
		ml.ScrollToEnd()
	}
}

func (ml *MessagesList) render() {
	if ml.loaded && len(ml.messages) == 0 {
		ml.SetText("[gray]" + emptyChannelText + "[-]")
		return
	}

	var b strings.Builder
	var prevDate string

	for i, msg := range ml.messages {
		t := parseSlackTimestamp(msg.TS)
		if !t.IsZero() {
			dateStr := t.Format("January 2, 2006")
			if dateStr != prevDate {
				if i > 0 {
					b.WriteString("\n")
				}
				b.WriteString(formatDateSeparator(dateStr, "─"))
				b.WriteString("\n")
				prevDate = dateStr
			}
		}

		fmt.Fprintf(&b, `["%s"]`, tview.Escape(msg.TS))
		b.WriteString(msg.Display)
		b.WriteString(`[""]`)
		b.WriteString("\n")
	}

	ml.SetText(strings.TrimSuffix(b.String(), "\n"))

	if ml.selectedIdx >= 0 && ml.selectedIdx < len(ml.messages) {
		ml.Highlight(ml.messages[ml.selectedIdx].TS)
		ml.ScrollToHighlight()
	} else {
		ml.Highlight()
	}
}

// handleInput processes navigation keys.
func (ml *MessagesList) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Name(event)

	switch name {
	case ml.cfg.Keybinds.MessagesList.Down:
		ml.selectNext()
		return nil
	case ml.cfg.Keybinds.MessagesList.Up:
		ml.selectPrev()
		return nil
	case ml.cfg.Keybinds.MessagesList.Top:
		ml.selectedIdx = -1
		ml.Highlight()
		ml.ScrollToBeginning()
		return nil
	case ml.cfg.Keybinds.MessagesList.Bottom:
		ml.selectedIdx = -1
		ml.Highlight()
		ml.ScrollToEnd()
		return nil
	}

	return event
}

// selectNext moves selection to the next message.
func (ml *MessagesList) selectNext() {
	if len(ml.messages) == 0 {
		return
	}
	if ml.selectedIdx < 0 {
		ml.selectedIdx = len(ml.messages) - 1
	} else if ml.selectedIdx < len(ml.messages)-1 {
		ml.selectedIdx++
	}
	ml.Highlight(ml.messages[ml.selectedIdx].TS)
	ml.ScrollToHighlight()
}

// selectPrev moves selection to the previous message.
func (ml *MessagesList) selectPrev() {
	if len(ml.messages) == 0 {
		return
	}
	if ml.selectedIdx < 0 {
		ml.selectedIdx = len(ml.messages) - 1
	} else if ml.selectedIdx > 0 {
		ml.selectedIdx--
	}
	ml.Highlight(ml.messages[ml.selectedIdx].TS)
	ml.ScrollToHighlight()
}

// parseSlackTimestamp converts a message timestamp (e.g. "1234567890.000100")
// to a time.Time.
func parseSlackTimestamp(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	sec, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// formatDateSeparator creates a centered date separator line.
func formatDateSeparator(date, char string) string {
	if char == "" {
		char = "─"
	}
	label := " " + date + " "
	sideLen := max((50-len(label))/2, 3)
	side := strings.Repeat(char, sideLen)
	return fmt.Sprintf("[gray]%s%s%s[-]", side, label, side)
}
