package markdown

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	// Markdown-style link typed by the user: [label](url).
	mdLinkRe = regexp.MustCompile(`\[([^\[\]\n]+)\]\(([^()\s]+)\)`)

	// Bare URL at the start of the remaining input.
	bareURLRe = regexp.MustCompile(`^(?:https?|ftp)://[^\s<>\[\]]+`)

	// Mention name at the start of the remaining input (after '@').
	mentionNameRe = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+`)
)

// LookupFunc maps a display name to a user ID.
type LookupFunc func(name string) (id string, ok bool)

// ToWire converts operator-typed text into Slack wire markup: markdown
// links become <url|label>, bare URLs become <url>, and @name becomes <@ID>
// when lookup knows the name. Anything it cannot transform is passed
// through unchanged.
func ToWire(text string, lookup LookupFunc) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("outbound markup failed", "panic", r)
			out = text
		}
	}()

	text = mdLinkRe.ReplaceAllString(text, "<$2|$1>")

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		c := text[i]
		prevWord := i > 0 && isWordByte(text[i-1])

		switch {
		case c == '<':
			// Existing wire token: copy verbatim.
			if end := strings.IndexByte(text[i:], '>'); end > 0 {
				b.WriteString(text[i : i+end+1])
				i += end + 1
				continue
			}

		case !prevWord && !bracketed(text, i) && (c == 'h' || c == 'f'):
			if loc := bareURLRe.FindStringIndex(text[i:]); loc != nil {
				url := trimURLPunct(text[i : i+loc[1]])
				b.WriteString("<" + url + ">")
				i += len(url)
				continue
			}

		case c == '@' && !prevWord && lookup != nil:
			if loc := mentionNameRe.FindStringIndex(text[i+1:]); loc != nil {
				name := text[i+1 : i+1+loc[1]]
				if id, n, ok := lookupMention(name, lookup); ok {
					b.WriteString("<@" + id + ">")
					i += 1 + n
					continue
				}
			}
		}

		b.WriteByte(c)
		i++
	}
	return b.String()
}

// bracketed reports whether the byte at i directly follows an opening
// bracket, where a URL is already delimited by the author.
func bracketed(text string, i int) bool {
	return i > 0 && (text[i-1] == '[' || text[i-1] == '<')
}

// lookupMention resolves name, retrying without trailing sentence
// punctuation. It returns the ID and how many bytes of name were consumed.
func lookupMention(name string, lookup LookupFunc) (string, int, bool) {
	for name != "" {
		if id, ok := lookup(name); ok {
			return id, len(name), true
		}
		trimmed := strings.TrimRight(name, ".-")
		if trimmed == name {
			break
		}
		name = trimmed
	}
	return "", 0, false
}

// trimURLPunct drops trailing punctuation that usually ends a sentence
// rather than the URL.
func trimURLPunct(url string) string {
	for len(url) > 0 {
		last := url[len(url)-1]
		if strings.IndexByte(".,;:!?'\"", last) >= 0 {
			url = url[:len(url)-1]
			continue
		}
		if last == ')' && strings.Count(url, "(") < strings.Count(url, ")") {
			url = url[:len(url)-1]
			continue
		}
		break
	}
	return url
}
