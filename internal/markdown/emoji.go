package markdown

import (
	"strings"
	"sync"
	"unicode"

	"github.com/kyokomi/emoji/v2"
)

// shortcodes maps Slack shortcodes (without colons) to unicode glyphs.
var shortcodes = sync.OnceValue(func() map[string]string {
	codeMap := emoji.CodeMap()
	table := make(map[string]string, len(codeMap))
	for code, glyph := range codeMap {
		name := strings.Trim(code, ":")
		if validShortcode(name) {
			table[name] = glyph
		}
	}
	// Slack aliases missing from the upstream table.
	for alias, target := range map[string]string{
		"simple_smile": "smile",
		"thumbsup_all": "thumbsup",
	} {
		if glyph, ok := table[target]; ok {
			if _, exists := table[alias]; !exists {
				table[alias] = glyph
			}
		}
	}
	return table
})

// validShortcode reports whether name uses only the characters Slack allows
// in shortcodes.
func validShortcode(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && !strings.ContainsRune("_-+", r) {
			return false
		}
	}
	return true
}

// lookupEmoji returns the glyph for name, or ":name:" when unknown.
func lookupEmoji(name string) string {
	if glyph, ok := shortcodes()[name]; ok {
		return glyph
	}
	return ":" + name + ":"
}
