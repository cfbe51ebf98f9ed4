package chat

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/model"
)

func newTestPicker() *ChannelsPicker {
	cfg := &config.Config{}
	cfg.Keybinds.ChannelsPicker.Up = "Ctrl+P"
	cfg.Keybinds.ChannelsPicker.Down = "Ctrl+N"
	cfg.Keybinds.ChannelsPicker.Select = "Enter"
	cfg.Keybinds.ChannelsPicker.Clear = "Esc"
	return NewChannelsPicker(cfg)
}

func testChannels() []model.Channel {
	return []model.Channel{
		{ID: "C1", Name: "general", IsMember: true},
		{ID: "C2", Name: "random"},
		{ID: "C3", Name: "engineering"},
	}
}

var enterKey = tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)

func TestChannelsPicker_SetData(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	if len(cp.entries) != 3 {
		t.Errorf("should have 3 entries, got %d", len(cp.entries))
	}
	if cp.FilteredCount() != 3 {
		t.Errorf("FilteredCount() = %d, want 3", cp.FilteredCount())
	}
}

func TestChannelsPicker_FuzzyFilter(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	cp.onInputChanged("gen")

	found := false
	for _, idx := range cp.filtered {
		if cp.entries[idx].channel.ID == "C1" {
			found = true
		}
		if cp.entries[idx].channel.ID == "C2" {
			t.Error("'gen' should not match 'random'")
		}
	}
	if !found {
		t.Error("'general' should be in filtered results for 'gen'")
	}
}

func TestChannelsPicker_HashPrefixIgnored(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	cp.onInputChanged("#rand")

	if cp.FilteredCount() != 1 {
		t.Fatalf("FilteredCount() = %d, want 1", cp.FilteredCount())
	}
	if got := cp.entries[cp.filtered[0]].channel.ID; got != "C2" {
		t.Errorf("filtered[0] = %q, want C2", got)
	}
}

func TestChannelsPicker_NoMatch(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	cp.onInputChanged("zzzzz")

	if cp.FilteredCount() != 0 {
		t.Errorf("FilteredCount() = %d, want 0", cp.FilteredCount())
	}
}

func TestChannelsPicker_ClearShowsAll(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())
	cp.onInputChanged("rand")

	cp.onInputChanged("")

	if cp.FilteredCount() != 3 {
		t.Errorf("FilteredCount() = %d, want 3", cp.FilteredCount())
	}
}

func TestChannelsPicker_SelectHighlighted(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	var got model.Channel
	cp.SetOnSelect(func(ch model.Channel) { got = ch })

	cp.input.SetText("rand")
	if ev := cp.handleInput(enterKey); ev != nil {
		t.Error("Enter should be consumed")
	}
	if got.ID != "C2" {
		t.Errorf("selected %q, want C2", got.ID)
	}
}

func TestChannelsPicker_SelectExactName(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	var got model.Channel
	cp.SetOnSelect(func(ch model.Channel) { got = ch })

	cp.input.SetText("#General")
	cp.handleInput(enterKey)

	if got.ID != "C1" {
		t.Errorf("selected %q, want C1", got.ID)
	}
}

func TestChannelsPicker_NotFound(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	selected := false
	cp.SetOnSelect(func(model.Channel) { selected = true })
	var missing string
	cp.SetOnNotFound(func(name string) { missing = name })

	cp.input.SetText("#nope")
	cp.handleInput(enterKey)

	if selected {
		t.Error("nothing should be selected")
	}
	if missing != "nope" {
		t.Errorf("onNotFound(%q), want %q", missing, "nope")
	}
}

func TestChannelsPicker_Navigation(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	down := tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
	up := tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)

	cp.handleInput(down)
	cp.handleInput(down)
	cp.handleInput(down)
	if got := cp.list.GetCurrentItem(); got != 2 {
		t.Errorf("after 3 downs current = %d, want 2", got)
	}

	cp.handleInput(up)
	if got := cp.list.GetCurrentItem(); got != 1 {
		t.Errorf("after up current = %d, want 1", got)
	}
}

func TestChannelsPicker_Lookup(t *testing.T) {
	cp := newTestPicker()
	cp.SetData(testChannels())

	tests := []struct {
		name   string
		wantID string
		wantOK bool
	}{
		{"general", "C1", true},
		{"RANDOM", "C2", true},
		{"gen", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		ch, ok := cp.Lookup(tt.name)
		if ok != tt.wantOK || ch.ID != tt.wantID {
			t.Errorf("Lookup(%q) = %q, %v, want %q, %v", tt.name, ch.ID, ok, tt.wantID, tt.wantOK)
		}
	}
}
