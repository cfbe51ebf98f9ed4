package chat

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/model"
	"github.com/m96-chan/slackline/internal/ui/keys"
)

// OnChannelSelectedFunc is called when a channel is picked.
type OnChannelSelectedFunc func(ch model.Channel)

// pickerEntry holds a channel's data for the picker.
type pickerEntry struct {
	channel     model.Channel
	displayText string
	searchText  string // lowercased name for fuzzy matching
}

// ChannelsPicker is the channel selection screen: a search field over a
// fuzzy-filtered list of every known channel.
type ChannelsPicker struct {
	*tview.Flex
	cfg        *config.Config
	input      *tview.InputField
	list       *tview.List
	entries    []pickerEntry
	filtered   []int // indices into entries for current filter
	onSelect   OnChannelSelectedFunc
	onNotFound func(name string)
}

// NewChannelsPicker creates a new channel picker component.
func NewChannelsPicker(cfg *config.Config) *ChannelsPicker {
	cp := &ChannelsPicker{
		cfg: cfg,
	}

	cp.input = tview.NewInputField()
	cp.input.SetLabel(" Channel: #")
	cp.input.SetPlaceholder("start typing to search")
	cp.input.SetFieldBackgroundColor(tcell.ColorDefault)
	cp.input.SetChangedFunc(cp.onInputChanged)
	cp.input.SetInputCapture(cp.handleInput)

	cp.list = tview.NewList()
	cp.list.SetHighlightFullLine(true)
	cp.list.ShowSecondaryText(false)
	cp.list.SetWrapAround(false)
	sel := cfg.Theme.ChannelsPicker.Selected
	cp.list.SetSelectedTextColor(sel.Foreground())
	cp.list.SetSelectedBackgroundColor(sel.Background())

	cp.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cp.input, 1, 0, true).
		AddItem(cp.list, 0, 1, false)
	cp.SetBorder(true).SetTitle(" Select a channel ")

	return cp
}

// SetOnSelect sets the callback for channel selection.
func (cp *ChannelsPicker) SetOnSelect(fn OnChannelSelectedFunc) {
	cp.onSelect = fn
}

// SetOnNotFound sets the callback for a submitted name that matches nothing.
func (cp *ChannelsPicker) SetOnNotFound(fn func(name string)) {
	cp.onNotFound = fn
}

// Input returns the search field, the widget that should hold focus.
func (cp *ChannelsPicker) Input() *tview.InputField {
	return cp.input
}

// SetData replaces the channel list and reapplies the current filter.
func (cp *ChannelsPicker) SetData(channels []model.Channel) {
	cp.entries = make([]pickerEntry, 0, len(channels))
	for _, ch := range channels {
		cp.entries = append(cp.entries, pickerEntry{
			channel:     ch,
			displayText: cp.displayText(ch),
			searchText:  strings.ToLower(ch.Name),
		})
	}
	cp.onInputChanged(cp.input.GetText())
}

// Reset clears the input and shows all channels.
func (cp *ChannelsPicker) Reset() {
	cp.input.SetText("")
	cp.showAll()
}

func (cp *ChannelsPicker) displayText(ch model.Channel) string {
	style := cp.cfg.Theme.ChannelsPicker.Channel
	text := style.Tag() + "# " + tview.Escape(ch.Name) + style.Reset()
	if ch.IsMember {
		m := cp.cfg.Theme.ChannelsPicker.Member
		text += " " + m.Tag() + "(member)" + m.Reset()
	}
	return text
}

// handleInput processes keybindings for the picker input field.
func (cp *ChannelsPicker) handleInput(event *tcell.EventKey) *tcell.EventKey {
	name := keys.Name(event)

	switch {
	case name == cp.cfg.Keybinds.ChannelsPicker.Select:
		cp.selectCurrent()
		return nil

	case name == cp.cfg.Keybinds.ChannelsPicker.Clear:
		cp.Reset()
		return nil

	case name == cp.cfg.Keybinds.ChannelsPicker.Up || event.Key() == tcell.KeyUp:
		cur := cp.list.GetCurrentItem()
		if cur > 0 {
			cp.list.SetCurrentItem(cur - 1)
		}
		return nil

	case name == cp.cfg.Keybinds.ChannelsPicker.Down || event.Key() == tcell.KeyDown:
		cur := cp.list.GetCurrentItem()
		if cur < cp.list.GetItemCount()-1 {
			cp.list.SetCurrentItem(cur + 1)
		}
		return nil
	}

	return event
}

// onInputChanged filters the list based on the current search text.
func (cp *ChannelsPicker) onInputChanged(text string) {
	query := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(text), "#"))
	if query == "" {
		cp.showAll()
		return
	}

	targets := make([]string, len(cp.entries))
	for i, e := range cp.entries {
		targets[i] = e.searchText
	}

	matches := fuzzy.Find(query, targets)

	cp.filtered = make([]int, len(matches))
	for i, m := range matches {
		cp.filtered[i] = m.Index
	}

	cp.rebuildList()
}

// showAll displays all channels (no filter).
func (cp *ChannelsPicker) showAll() {
	cp.filtered = make([]int, len(cp.entries))
	for i := range cp.entries {
		cp.filtered[i] = i
	}
	cp.rebuildList()
}

// rebuildList updates the tview.List from the filtered entries.
func (cp *ChannelsPicker) rebuildList() {
	cp.list.Clear()
	for _, idx := range cp.filtered {
		cp.list.AddItem(cp.entries[idx].displayText, "", 0, nil)
	}
	if cp.list.GetItemCount() > 0 {
		cp.list.SetCurrentItem(0)
	}
}

// selectCurrent picks the exact name match if there is one, otherwise the
// highlighted entry.
func (cp *ChannelsPicker) selectCurrent() {
	name := strings.TrimPrefix(strings.TrimSpace(cp.input.GetText()), "#")

	if ch, ok := cp.Lookup(name); ok {
		cp.selected(ch)
		return
	}

	cur := cp.list.GetCurrentItem()
	if cur >= 0 && cur < len(cp.filtered) {
		cp.selected(cp.entries[cp.filtered[cur]].channel)
		return
	}

	if name != "" && cp.onNotFound != nil {
		cp.onNotFound(name)
	}
}

func (cp *ChannelsPicker) selected(ch model.Channel) {
	if cp.onSelect != nil {
		cp.onSelect(ch)
	}
}

// Lookup finds a channel by exact name, ignoring case.
func (cp *ChannelsPicker) Lookup(name string) (model.Channel, bool) {
	if name == "" {
		return model.Channel{}, false
	}
	for _, e := range cp.entries {
		if strings.EqualFold(e.channel.Name, name) {
			return e.channel, true
		}
	}
	return model.Channel{}, false
}

// FilteredCount returns the number of currently visible entries.
func (cp *ChannelsPicker) FilteredCount() int {
	return len(cp.filtered)
}
