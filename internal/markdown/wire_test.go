package markdown

import (
	"strings"
	"testing"
)

func lookupFrom(names map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		for id, n := range names {
			if strings.EqualFold(n, name) {
				return id, true
			}
		}
		return "", false
	}
}

func TestToWire(t *testing.T) {
	lookup := lookupFrom(map[string]string{"U1": "alice", "U2": "bob.smith"})

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"mention", "@alice hi", "<@U1> hi"},
		{"mention case-insensitive", "@ALICE hi", "<@U1> hi"},
		{"mention with dot", "ping @bob.smith", "ping <@U2>"},
		{"mention trailing period", "thanks @alice.", "thanks <@U1>."},
		{"unknown mention kept", "@carol hi", "@carol hi"},
		{"email not a mention", "mail me@alice.com", "mail me@alice.com"},
		{"markdown link", "see [docs](https://go.dev/doc)", "see <https://go.dev/doc|docs>"},
		{"bare url", "see https://go.dev now", "see <https://go.dev> now"},
		{"bare url trailing period", "see https://go.dev.", "see <https://go.dev>."},
		{"url in parens", "(https://go.dev)", "(<https://go.dev>)"},
		{"existing token untouched", "<https://go.dev|go> and <@U9>", "<https://go.dev|go> and <@U9>"},
		{"mention inside token untouched", "<mailto:x@alice>", "<mailto:x@alice>"},
		{"bracketed url untouched", "see [http://x.com] now", "see [http://x.com] now"},
		{"only bracketed url", "[http://x.com]", "[http://x.com]"},
		{"url stops at bracket", "http://x.com] tail", "<http://x.com>] tail"},
		{"lone at", "a @ b", "a @ b"},
		{"unclosed bracket", "a < b @alice", "a < b <@U1>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToWire(tt.text, lookup)
			if got != tt.want {
				t.Errorf("ToWire(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestToWire_NilLookup(t *testing.T) {
	got := ToWire("@alice https://go.dev", nil)
	want := "@alice <https://go.dev>"
	if got != want {
		t.Errorf("ToWire() = %q, want %q", got, want)
	}
}

func TestToWire_RenderRoundTrip(t *testing.T) {
	names := map[string]string{"U1": "alice"}
	wire := ToWire("@alice hi", lookupFrom(names))
	if wire != "<@U1> hi" {
		t.Fatalf("ToWire() = %q", wire)
	}

	tr := newTestTranslator()
	got := tr.Render(wire, names, nil)
	want := "[yellow::b]@alice[-::-] hi"
	if got != want {
		t.Errorf("Render(ToWire()) = %q, want %q", got, want)
	}
}
