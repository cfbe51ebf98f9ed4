package chat

import (
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
)

// JoinButton is shown above the input while the bot is not a member of
// the watched channel.
type JoinButton struct {
	*tview.Button
	busy bool
}

// NewJoinButton creates a themed join button.
func NewJoinButton(cfg *config.Config) *JoinButton {
	jb := &JoinButton{
		Button: tview.NewButton("Join channel"),
	}
	normal := cfg.Theme.JoinButton.Normal
	focused := cfg.Theme.JoinButton.Focused
	jb.SetLabelColor(normal.Foreground())
	jb.SetBackgroundColor(normal.Background())
	jb.SetLabelColorActivated(focused.Foreground())
	jb.SetBackgroundColorActivated(focused.Background())
	return jb
}

// SetOnJoin sets the callback for pressing the button. Presses are ignored
// while a join is in flight.
func (jb *JoinButton) SetOnJoin(fn func()) {
	jb.SetSelectedFunc(func() {
		if jb.busy || fn == nil {
			return
		}
		jb.SetBusy(true)
		fn()
	})
}

// SetBusy marks a join as in flight.
func (jb *JoinButton) SetBusy(busy bool) {
	jb.busy = busy
	if busy {
		jb.SetLabel("Joining...")
	} else {
		jb.SetLabel("Join channel")
	}
}

// Busy reports whether a join is in flight.
func (jb *JoinButton) Busy() bool {
	return jb.busy
}
