package chat

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/ui/keys"
)

// Panel identifies which panel is focused.
type Panel int

const (
	PanelPicker Panel = iota
	PanelMessages
	PanelJoin
	PanelInput
)

const (
	pagePicker = "picker"
	pageChat   = "chat"
)

// View is the main layout: a channel selection screen and a message
// screen stacked in pages, above a shared status bar.
type View struct {
	*tview.Flex
	app *tview.Application
	cfg *config.Config

	Pages     *tview.Pages
	Picker    *ChannelsPicker
	Header    *tview.TextView
	Messages  *MessagesList
	Join      *JoinButton
	Input     *MessageInput
	Members   *MembersPanel
	StatusBar *StatusBar

	contentFlex    *tview.Flex
	mainFlex       *tview.Flex
	channel        model.Channel
	activePanel    Panel
	joinVisible    bool
	membersVisible bool
}

// New creates the main view.
//
// Layout:
//
//	Outer Flex (FlexRow)
//	├── Pages
//	│   ├── "picker": ChannelsPicker
//	│   └── "chat": mainFlex (FlexColumn)
//	│       ├── contentFlex (FlexRow)
//	│       │   ├── Header (fixed 1 row)
//	│       │   ├── Messages (proportional)
//	│       │   ├── Join (fixed 1 row, non-members only)
//	│       │   └── Input (fixed 3 rows)
//	│       └── Members (fixed 28 cols, toggled)
//	└── StatusBar (fixed 1 row)
func New(app *tview.Application, cfg *config.Config) *View {
	v := &View{
		app: app,
		cfg: cfg,
	}

	v.Picker = NewChannelsPicker(cfg)

	v.Header = tview.NewTextView().
		SetDynamicColors(true)

	v.Messages = NewMessagesList(cfg)
	v.Join = NewJoinButton(cfg)
	v.Input = NewMessageInput(cfg)
	v.Members = NewMembersPanel(cfg)
	v.StatusBar = NewStatusBar(cfg)

	v.contentFlex = tview.NewFlex().SetDirection(tview.FlexRow)
	v.mainFlex = tview.NewFlex().SetDirection(tview.FlexColumn)
	v.rebuildContentFlex()
	v.rebuildMainFlex()

	v.Pages = tview.NewPages().
		AddPage(pageChat, v.mainFlex, true, false).
		AddPage(pagePicker, v.Picker, true, true)

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.Pages, 0, 1, true).
		AddItem(v.StatusBar, 1, 0, false)

	v.activePanel = PanelPicker
	v.applyBorderStyles()

	return v
}

// ShowPicker switches to the channel selection screen.
func (v *View) ShowPicker() {
	v.channel = model.Channel{}
	v.Messages.Clear()
	v.Members.Reset()
	v.Input.Clear()
	v.SetJoinVisible(false)
	v.Picker.Reset()
	v.Pages.SwitchToPage(pagePicker)
	v.FocusPanel(PanelPicker)
}

// ShowChat switches to the message screen for ch.
func (v *View) ShowChat(ch model.Channel) {
	v.channel = ch
	v.Messages.Clear()
	v.Members.Reset()
	v.SetJoinVisible(false)
	v.Header.SetText(" Sending to: [::b]#" + tview.Escape(ch.Name) + "[::-]")
	v.Pages.SwitchToPage(pageChat)
	v.FocusPanel(PanelInput)
}

// Channel returns the channel shown on the message screen, if any.
func (v *View) Channel() (model.Channel, bool) {
	return v.channel, v.channel.ID != ""
}

// OnChatScreen reports whether the message screen is showing.
func (v *View) OnChatScreen() bool {
	name, _ := v.Pages.GetFrontPage()
	return name == pageChat
}

// SetJoinVisible shows or hides the join button.
func (v *View) SetJoinVisible(visible bool) {
	if !visible {
		v.Join.SetBusy(false)
	}
	if v.joinVisible == visible {
		return
	}
	v.joinVisible = visible
	v.rebuildContentFlex()
	if !visible && v.activePanel == PanelJoin {
		v.FocusPanel(PanelInput)
	}
}

// JoinVisible reports whether the join button is shown.
func (v *View) JoinVisible() bool {
	return v.joinVisible
}

// ToggleMembers shows or hides the members panel. It reports whether the
// panel is now visible.
func (v *View) ToggleMembers() bool {
	v.membersVisible = !v.membersVisible
	v.rebuildMainFlex()
	return v.membersVisible
}

// FocusPanel sets focus to the given panel and updates border colors.
func (v *View) FocusPanel(panel Panel) {
	if panel == PanelJoin && !v.joinVisible {
		panel = PanelInput
	}
	v.activePanel = panel
	v.applyBorderStyles()

	if v.app == nil {
		return
	}
	switch panel {
	case PanelPicker:
		v.app.SetFocus(v.Picker.Input())
	case PanelMessages:
		v.app.SetFocus(v.Messages)
	case PanelJoin:
		v.app.SetFocus(v.Join)
	case PanelInput:
		v.app.SetFocus(v.Input)
	}
}

// ActivePanel returns the focused panel.
func (v *View) ActivePanel() Panel {
	return v.activePanel
}

// HandleKey processes view-level keybindings. Returns nil to consume the event.
func (v *View) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Name(event)

	if !v.OnChatScreen() {
		return event
	}

	// Rune-based keybinds must not steal keystrokes from the input.
	if v.activePanel == PanelInput && event.Key() == tcell.KeyRune {
		return event
	}

	switch name {
	case v.cfg.Keybinds.FocusMessages:
		v.FocusPanel(PanelMessages)
		return nil
	case v.cfg.Keybinds.FocusInput:
		v.FocusPanel(PanelInput)
		return nil
	}

	// Tab cycles between the screen's focusable panels.
	if event.Key() == tcell.KeyTab {
		v.FocusPanel(v.nextPanel())
		return nil
	}

	return event
}

func (v *View) nextPanel() Panel {
	switch v.activePanel {
	case PanelMessages:
		if v.joinVisible {
			return PanelJoin
		}
		return PanelInput
	case PanelJoin:
		return PanelInput
	default:
		return PanelMessages
	}
}

// rebuildContentFlex reconstructs the message screen column after the join
// button is shown or hidden. tview has no InsertItem, so we Clear() and
// re-add items.
func (v *View) rebuildContentFlex() {
	v.contentFlex.Clear()
	v.contentFlex.
		AddItem(v.Header, 1, 0, false).
		AddItem(v.Messages, 0, 1, false)
	if v.joinVisible {
		v.contentFlex.AddItem(v.Join, 1, 0, false)
	}
	v.contentFlex.AddItem(v.Input, 3, 0, true)
}

func (v *View) rebuildMainFlex() {
	v.mainFlex.Clear()
	v.mainFlex.AddItem(v.contentFlex, 0, 1, true)
	if v.membersVisible {
		v.mainFlex.AddItem(v.Members, 28, 0, false)
	}
}

// applyBorderStyles updates border colors based on which panel is active.
func (v *View) applyBorderStyles() {
	focusedFg := v.cfg.Theme.Border.Focused.Foreground()
	normalFg := v.cfg.Theme.Border.Normal.Foreground()
	focusedTitleFg := v.cfg.Theme.Title.Focused.Foreground()
	normalTitleFg := v.cfg.Theme.Title.Normal.Foreground()

	type bordered struct {
		box   *tview.Box
		panel Panel
	}

	panels := []bordered{
		{v.Picker.Box, PanelPicker},
		{v.Messages.Box, PanelMessages},
		{v.Input.Box, PanelInput},
	}

	for _, p := range panels {
		if p.panel == v.activePanel {
			p.box.SetBorderColor(focusedFg)
			p.box.SetTitleColor(focusedTitleFg)
		} else {
			p.box.SetBorderColor(normalFg)
			p.box.SetTitleColor(normalTitleFg)
		}
	}
	v.Members.SetBorderColor(normalFg)
	v.Members.SetTitleColor(normalTitleFg)
}
