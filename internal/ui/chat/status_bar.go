package chat

import (
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/engine"
)

// StatusBar displays the latest status line at the bottom, colored by kind.
type StatusBar struct {
	*tview.TextView
	cfg  *config.Config
	kind engine.StatusKind
	text string
}

// NewStatusBar creates a themed status bar.
func NewStatusBar(cfg *config.Config) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	bg := cfg.Theme.StatusBar.Background.Background()
	tv.SetBackgroundColor(bg)
	tv.SetTextColor(cfg.Theme.StatusBar.Background.Foreground())

	return &StatusBar{
		TextView: tv,
		cfg:      cfg,
	}
}

// SetStatus replaces the status line.
func (sb *StatusBar) SetStatus(kind engine.StatusKind, text string) {
	sb.kind = kind
	sb.text = text
	sb.render()
}

// Status returns the current status line and its kind.
func (sb *StatusBar) Status() (engine.StatusKind, string) {
	return sb.kind, sb.text
}

func (sb *StatusBar) render() {
	style := sb.cfg.Theme.StatusBar.Loading
	switch sb.kind {
	case engine.StatusSuccess:
		style = sb.cfg.Theme.StatusBar.Success
	case engine.StatusError:
		style = sb.cfg.Theme.StatusBar.Error
	}
	sb.TextView.SetText(" " + style.Tag() + tview.Escape(sb.text) + style.Reset())
}
