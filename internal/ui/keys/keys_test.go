package keys

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Ctrl-C", "Ctrl+C"},
		{"Ctrl-T", "Ctrl+T"},
		{"Rune[j]", "Rune[j]"},
		{"Enter", "Enter"},
		{"Escape", "Escape"},
		{"Ctrl-Shift-A", "Ctrl+Shift-A"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		event *tcell.EventKey
		want  string
	}{
		{tcell.NewEventKey(tcell.KeyCtrlK, 0, tcell.ModCtrl), "Ctrl+K"},
		{tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "Esc"},
		{tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), "Rune[j]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Name(tt.event); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	enter := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)

	if !Matches(enter, "Enter") {
		t.Error("Matches(Enter, \"Enter\") = false")
	}
	if Matches(enter, "Esc") {
		t.Error("Matches(Enter, \"Esc\") = true")
	}
	if Matches(enter, "") {
		t.Error("empty binding should never match")
	}
}
