package chat

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/ui/keys"
)

// OnSendFunc is called with the trimmed text when the user sends a message.
type OnSendFunc func(text string)

// MessageInput wraps tview.TextArea with send and cancel keys. The text is
// kept until Clear is called, so a failed send can be retried.
type MessageInput struct {
	*tview.TextArea
	cfg      *config.Config
	onSend   OnSendFunc
	onCancel func()
}

// NewMessageInput creates a new message input component.
func NewMessageInput(cfg *config.Config) *MessageInput {
	mi := &MessageInput{
		TextArea: tview.NewTextArea(),
		cfg:      cfg,
	}

	mi.SetBorder(true).SetTitle(" Message ")
	mi.SetPlaceholder("Type a message and press Enter...")
	mi.SetTextStyle(cfg.Theme.MessageInput.Text.Style)
	mi.SetPlaceholderStyle(cfg.Theme.MessageInput.Placeholder.Style)

	mi.SetInputCapture(mi.handleInput)

	return mi
}

// SetOnSend sets the callback for sending messages.
func (mi *MessageInput) SetOnSend(fn OnSendFunc) {
	mi.onSend = fn
}

// SetOnCancel sets the callback for leaving the message screen.
func (mi *MessageInput) SetOnCancel(fn func()) {
	mi.onCancel = fn
}

// Clear empties the input.
func (mi *MessageInput) Clear() {
	mi.SetText("", false)
}

// handleInput processes keybindings for the input area.
func (mi *MessageInput) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Name(event)

	switch name {
	case mi.cfg.Keybinds.MessageInput.Send:
		mi.send()
		return nil

	case mi.cfg.Keybinds.MessageInput.Cancel:
		if mi.onCancel != nil {
			mi.onCancel()
			return nil
		}
	}

	return event
}

// send dispatches the current input text.
func (mi *MessageInput) send() {
	text := strings.TrimSpace(mi.GetText())
	if text == "" {
		return
	}
	if mi.onSend != nil {
		mi.onSend(text)
	}
}
