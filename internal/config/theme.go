package config

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// StyleWrapper wraps tcell.Style and implements TOML unmarshalling.
// In TOML it is represented as a table with optional "foreground",
// "background", and "attributes" string fields. The original names are
// kept so the style can also be emitted as a tview color tag.
type StyleWrapper struct {
	tcell.Style

	fg    string
	bg    string
	attrs string // tview attribute letters, e.g. "bu"
}

// UnmarshalTOML implements the toml.Unmarshaler interface.
func (s *StyleWrapper) UnmarshalTOML(data any) error {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("expected table for style, got %T", data)
	}

	fg, _ := m["foreground"].(string)
	bg, _ := m["background"].(string)
	attrs, _ := m["attributes"].(string)
	if _, err := stringToAttrMask(attrs); err != nil {
		return err
	}

	*s = makeStyle(fg, bg, attrsToTviewString(attrs))
	return nil
}

// makeStyle builds a StyleWrapper from color names and tview attribute
// letters.
func makeStyle(fg, bg, attrs string) StyleWrapper {
	style := tcell.StyleDefault
	if fg != "" {
		style = style.Foreground(tcell.GetColor(fg))
	}
	if bg != "" {
		style = style.Background(tcell.GetColor(bg))
	}
	var mask tcell.AttrMask
	for _, r := range attrs {
		mask |= tviewAttr[r]
	}
	return StyleWrapper{Style: style.Attributes(mask), fg: fg, bg: bg, attrs: attrs}
}

// Foreground returns the style's foreground color.
func (s StyleWrapper) Foreground() tcell.Color {
	fg, _, _ := s.Decompose()
	return fg
}

// Background returns the style's background color.
func (s StyleWrapper) Background() tcell.Color {
	_, bg, _ := s.Decompose()
	return bg
}

// Tag returns the tview color tag that applies this style.
func (s StyleWrapper) Tag() string {
	switch {
	case s.bg == "" && s.attrs == "":
		return "[" + orDash(s.fg) + "]"
	default:
		return "[" + orDash(s.fg) + ":" + orDash(s.bg) + ":" + orDash(s.attrs) + "]"
	}
}

// Reset returns the tview tag that undoes Tag.
func (s StyleWrapper) Reset() string {
	switch {
	case s.bg != "":
		return "[-:-:-]"
	case s.attrs != "":
		return "[-::-]"
	default:
		return "[-]"
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

var tviewAttr = map[rune]tcell.AttrMask{
	'b': tcell.AttrBold,
	'i': tcell.AttrItalic,
	'u': tcell.AttrUnderline,
	'd': tcell.AttrDim,
	'r': tcell.AttrReverse,
	'l': tcell.AttrBlink,
	's': tcell.AttrStrikeThrough,
}

var attrLetters = map[string]string{
	"bold":          "b",
	"italic":        "i",
	"underline":     "u",
	"dim":           "d",
	"reverse":       "r",
	"blink":         "l",
	"strikethrough": "s",
}

// attrsToTviewString converts "bold|underline" into tview letters ("bu").
// Unknown names are skipped.
func attrsToTviewString(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "|") {
		b.WriteString(attrLetters[strings.TrimSpace(strings.ToLower(part))])
	}
	return b.String()
}

// stringToAttrMask parses a pipe-separated list of attribute names into
// a tcell.AttrMask. For example: "bold|underline".
func stringToAttrMask(s string) (tcell.AttrMask, error) {
	var mask tcell.AttrMask
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "none" || part == "" {
			continue
		}
		letter, ok := attrLetters[part]
		if !ok {
			return 0, fmt.Errorf("unknown style attribute: %q", part)
		}
		mask |= tviewAttr[rune(letter[0])]
	}
	return mask, nil
}

// Theme holds the complete theme configuration.
type Theme struct {
	Preset         string              `toml:"preset"`
	Border         BorderTheme         `toml:"border"`
	Title          TitleTheme          `toml:"title"`
	ChannelsPicker ChannelsPickerTheme `toml:"channels_picker"`
	MessagesList   MessagesListTheme   `toml:"messages_list"`
	MessageInput   MessageInputTheme   `toml:"message_input"`
	StatusBar      StatusBarTheme      `toml:"status_bar"`
	JoinButton     JoinButtonTheme     `toml:"join_button"`
	Markdown       MarkdownTheme       `toml:"markdown"`
}

// BorderTheme configures border styling.
type BorderTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// TitleTheme configures title bar styling.
type TitleTheme struct {
	Focused StyleWrapper `toml:"focused"`
	Normal  StyleWrapper `toml:"normal"`
}

// ChannelsPickerTheme configures the channel picker list.
type ChannelsPickerTheme struct {
	Channel  StyleWrapper `toml:"channel"`
	Member   StyleWrapper `toml:"member"`
	Selected StyleWrapper `toml:"selected"`
}

// MessagesListTheme configures the messages list styling.
type MessagesListTheme struct {
	Message StyleWrapper `toml:"message"`
	Author  StyleWrapper `toml:"author"`
}

// MessageInputTheme configures the message input styling.
type MessageInputTheme struct {
	Text        StyleWrapper `toml:"text"`
	Placeholder StyleWrapper `toml:"placeholder"`
}

// StatusBarTheme colors status lines by kind.
type StatusBarTheme struct {
	Background StyleWrapper `toml:"background"`
	Loading    StyleWrapper `toml:"loading"`
	Success    StyleWrapper `toml:"success"`
	Error      StyleWrapper `toml:"error"`
}

// JoinButtonTheme configures the join button shown for non-member channels.
type JoinButtonTheme struct {
	Normal  StyleWrapper `toml:"normal"`
	Focused StyleWrapper `toml:"focused"`
}

// MarkdownTheme configures inline message markup.
type MarkdownTheme struct {
	UserMention    StyleWrapper `toml:"user_mention"`
	ChannelMention StyleWrapper `toml:"channel_mention"`
	SpecialMention StyleWrapper `toml:"special_mention"`
	Link           StyleWrapper `toml:"link"`
	InlineCode     StyleWrapper `toml:"inline_code"`
	CodeFence      StyleWrapper `toml:"code_fence"`
}
