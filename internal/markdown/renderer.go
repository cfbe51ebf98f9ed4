package markdown

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

// placeholder markers for rendered spans that later rules must not touch.
const placeholderPrefix = "\x00T"
const placeholderSuffix = "\x00"

// Compiled patterns for Slack mrkdwn.
var (
	// Slack angle-bracket tokens: <@U123>, <#C123|name>, <!here>, <URL|label>.
	slackTokenRe = regexp.MustCompile(`<([^<>\n]+)>`)

	// Inline code: `text` (single backtick, not inside code blocks).
	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")

	// Emoji: :name: (alphanumeric, underscore, hyphen, plus).
	emojiRe = regexp.MustCompile(`:([a-zA-Z0-9_+\-]+):`)

	// Code block: ```lang\ncode``` or ```code```.
	codeBlockRe = regexp.MustCompile("(?s)```(\\w*)\\n?(.*?)```")

	// URL scheme prefix, e.g. "https:" or "mailto:".
	schemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*:`)
)

// MarkdownColors holds pre-computed tview tag strings for markdown rendering,
// avoiding a direct dependency on the config package.
type MarkdownColors struct {
	UserMention    string // e.g. "[yellow::b]"
	ChannelMention string // e.g. "[cyan::b]"
	SpecialMention string // e.g. "[yellow::bu]"
	Link           string // e.g. "[blue::u]"
	InlineCode     string // e.g. "[gray]"
	CodeFence      string // e.g. "[gray]"
	Author         string // e.g. "[aqua::b]"
}

// DefaultMarkdownColors returns the built-in palette.
func DefaultMarkdownColors() MarkdownColors {
	return MarkdownColors{
		UserMention:    "[yellow::b]",
		ChannelMention: "[cyan::b]",
		SpecialMention: "[yellow::bu]",
		Link:           "[blue::u]",
		InlineCode:     "[gray]",
		CodeFence:      "[gray]",
		Author:         "[aqua::b]",
	}
}

// Translator converts between Slack wire markup and the tview display
// format. It holds no state besides its palette and is safe for concurrent
// use.
type Translator struct {
	Colors      MarkdownColors
	SyntaxTheme string
}

// NewTranslator returns a Translator using colors and the chroma style
// named syntaxTheme for fenced code.
func NewTranslator(colors MarkdownColors, syntaxTheme string) *Translator {
	return &Translator{Colors: colors, SyntaxTheme: syntaxTheme}
}

// Render converts Slack mrkdwn text to tview-formatted output. names maps
// user IDs to display names and channels maps channel IDs to names; either
// may be nil. Malformed markup is shown as the original text.
func (t *Translator) Render(text string, names, channels map[string]string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("markup render failed", "panic", r)
			out = tview.Escape(text)
		}
	}()

	// Split text into code blocks and non-code segments.
	segments := splitCodeBlocks(text)

	var b strings.Builder
	for _, seg := range segments {
		if seg.isCode {
			b.WriteString(t.renderCodeBlock(seg.lang, seg.code))
		} else {
			b.WriteString(t.renderInline(seg.text, names, channels))
		}
	}
	return b.String()
}

// RenderMessage renders "author: text" with continuation lines indented to
// start under the first character after the prefix.
func (t *Translator) RenderMessage(author, text string, names, channels map[string]string) string {
	body := t.Render(text, names, channels)
	prefix := t.Colors.Author + tview.Escape(author) + resetFor(t.Colors.Author) + ": "
	pad := strings.Repeat(" ", runewidth.StringWidth(author)+2)

	lines := strings.Split(body, "\n")
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(lines[0])
	for _, line := range lines[1:] {
		b.WriteString("\n")
		b.WriteString(pad)
		b.WriteString(line)
	}
	return b.String()
}

// segment represents either a code block or inline text.
type segment struct {
	isCode bool
	lang   string // language hint for code blocks
	code   string // code block content
	text   string // inline text content
}

// splitCodeBlocks splits text into alternating inline/code-block segments.
func splitCodeBlocks(text string) []segment {
	matches := codeBlockRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []segment{{text: text}}
	}

	var segments []segment
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			segments = append(segments, segment{text: text[prev:m[0]]})
		}
		segments = append(segments, segment{
			isCode: true,
			lang:   text[m[2]:m[3]],
			code:   text[m[4]:m[5]],
		})
		prev = m[1]
	}
	if prev < len(text) {
		segments = append(segments, segment{text: text[prev:]})
	}
	return segments
}

// renderCodeBlock renders a fenced code block with syntax highlighting.
func (t *Translator) renderCodeBlock(lang, code string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(t.SyntaxTheme)
	if style == nil {
		style = styles.Fallback
	}

	fenceTag := t.Colors.CodeFence
	fenceReset := resetFor(fenceTag)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fenceTag + "```" + fenceReset + "\n" + tview.Escape(code) + "\n" + fenceTag + "```" + fenceReset
	}

	var buf strings.Builder
	buf.WriteString(fenceTag + "```" + fenceReset)
	if lang != "" {
		buf.WriteString(fenceTag + tview.Escape(lang) + fenceReset)
	}
	buf.WriteString("\n")

	for _, token := range iterator.Tokens() {
		text := tview.Escape(token.Value)
		entry := style.Get(token.Type)
		if !entry.Colour.IsSet() {
			buf.WriteString(text)
			continue
		}

		attrs := ""
		if entry.Bold == chroma.Yes {
			attrs += "b"
		}
		if entry.Italic == chroma.Yes {
			attrs += "i"
		}
		if attrs != "" {
			fmt.Fprintf(&buf, "[%s::%s]%s[-::-]", entry.Colour.String(), attrs, text)
		} else {
			fmt.Fprintf(&buf, "[%s]%s[-]", entry.Colour.String(), text)
		}
	}

	result := strings.TrimRight(buf.String(), "\n")
	return result + "\n" + fenceTag + "```" + fenceReset
}

// placeholders collects rendered spans and hands out markers for them.
type placeholders []string

func (p *placeholders) add(rendered string) string {
	idx := len(*p)
	*p = append(*p, rendered)
	return fmt.Sprintf("%s%d%s", placeholderPrefix, idx, placeholderSuffix)
}

// restore substitutes markers back, newest first so spans that captured an
// older marker are expanded before it.
func (p placeholders) restore(text string) string {
	for i := len(p) - 1; i >= 0; i-- {
		marker := fmt.Sprintf("%s%d%s", placeholderPrefix, i, placeholderSuffix)
		text = strings.Replace(text, marker, p[i], 1)
	}
	return text
}

// renderInline processes inline mrkdwn formatting.
func (t *Translator) renderInline(text string, names, channels map[string]string) string {
	var ph placeholders

	// Angle-bracket tokens first; their output is opaque to later rules.
	text = slackTokenRe.ReplaceAllStringFunc(text, func(match string) string {
		return ph.add(t.renderSlackToken(match, names, channels))
	})

	text = tview.Escape(text)

	inlineCodeTag := t.Colors.InlineCode
	text = inlineCodeRe.ReplaceAllStringFunc(text, func(match string) string {
		return ph.add(inlineCodeTag + match + resetFor(inlineCodeTag))
	})

	text = emphasize(text, '*', "[::b]", "[::-]")
	text = emphasize(text, '_', "[::i]", "[::-]")
	text = emphasize(text, '~', "[::s]", "[::-]")

	text = emojiRe.ReplaceAllStringFunc(text, func(match string) string {
		return lookupEmoji(match[1 : len(match)-1])
	})

	return ph.restore(text)
}

// emphasize wraps delim-enclosed runs in open/close tags. A run must be
// non-empty, must not start or end with whitespace, must stay on one line,
// and its delimiters must not touch a word character on the outside
// (so snake_case_names are left alone).
func emphasize(text string, delim byte, open, close string) string {
	if strings.IndexByte(text, delim) < 0 {
		return text
	}

	var b strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		if c != delim || (i > 0 && isWordByte(text[i-1])) || i+1 >= len(text) || isSpaceByte(text[i+1]) {
			b.WriteByte(c)
			i++
			continue
		}

		end := -1
		for j := i + 2; j < len(text); j++ {
			if text[j] == '\n' {
				break
			}
			if text[j] == delim && !isSpaceByte(text[j-1]) && (j+1 == len(text) || !isWordByte(text[j+1])) {
				end = j
				break
			}
		}
		if end < 0 {
			b.WriteByte(c)
			i++
			continue
		}

		b.WriteString(open)
		b.WriteString(text[i+1 : end])
		b.WriteString(close)
		i = end + 1
	}
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// renderSlackToken converts a single Slack angle-bracket token to styled
// text. Tokens it does not recognize come back as the escaped original.
func (t *Translator) renderSlackToken(match string, names, channels map[string]string) string {
	inner := match[1 : len(match)-1]

	switch {
	case strings.HasPrefix(inner, "@"):
		return t.renderUserMention(inner[1:], names)
	case strings.HasPrefix(inner, "#"):
		return t.renderChannelMention(inner[1:], channels)
	case strings.HasPrefix(inner, "!"):
		return t.renderSpecialMention(inner[1:])
	}

	url, label, hasLabel := strings.Cut(inner, "|")
	if hasLabel && url != "" && label != "" {
		return t.renderLink(url, label)
	}
	if !hasLabel && schemeRe.MatchString(url) {
		return t.renderLink(url, url)
	}
	return tview.Escape(match)
}

// renderUserMention renders @U123 or @U123|label.
func (t *Translator) renderUserMention(token string, names map[string]string) string {
	userID, label, _ := strings.Cut(token, "|")

	name := label
	if name == "" {
		name = names[userID]
	}
	if name == "" {
		name = userID
	}
	return t.Colors.UserMention + "@" + tview.Escape(name) + resetFor(t.Colors.UserMention)
}

// renderChannelMention renders #C123 or #C123|name.
func (t *Translator) renderChannelMention(token string, channels map[string]string) string {
	channelID, label, _ := strings.Cut(token, "|")

	name := label
	if name == "" {
		name = channels[channelID]
	}
	if name == "" {
		name = channelID
	}
	return t.Colors.ChannelMention + "#" + tview.Escape(name) + resetFor(t.Colors.ChannelMention)
}

// renderSpecialMention renders !here, !channel, !everyone.
func (t *Translator) renderSpecialMention(token string) string {
	keyword, label, _ := strings.Cut(token, "|")
	if label == "" {
		label = "@" + keyword
	}
	return t.Colors.SpecialMention + tview.Escape(label) + resetFor(t.Colors.SpecialMention)
}

// renderLink renders a terminal hyperlink to url showing label.
func (t *Translator) renderLink(url, label string) string {
	return t.Colors.Link + "[:::" + linkTarget(url) + "]" + tview.Escape(label) + "[:::-]" + resetFor(t.Colors.Link)
}

// linkTarget percent-encodes the brackets that would end a tview tag.
func linkTarget(url string) string {
	return strings.NewReplacer("[", "%5B", "]", "%5D").Replace(url)
}

// resetFor returns the tag that undoes tag: "[-:-:-]" when tag sets a
// background, "[-::-]" when it sets attributes, "[-]" otherwise.
func resetFor(tag string) string {
	parts := strings.Split(strings.Trim(tag, "[]"), ":")
	switch {
	case len(parts) >= 2 && parts[1] != "" && parts[1] != "-":
		return "[-:-:-]"
	case len(parts) >= 3:
		return "[-::-]"
	default:
		return "[-]"
	}
}
