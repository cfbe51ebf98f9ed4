package config

// BuiltinTheme returns a fully populated Theme for the given preset name.
// Unknown names fall back to "default".
func BuiltinTheme(name string) Theme {
	switch name {
	case "dark":
		return darkTheme()
	case "light":
		return lightTheme()
	case "monokai":
		return monokaiTheme()
	case "solarized_dark":
		return solarizedDarkTheme()
	default:
		return defaultTheme()
	}
}

// BuiltinThemeNames lists the accepted preset names.
func BuiltinThemeNames() []string {
	return []string{"default", "dark", "light", "monokai", "solarized_dark"}
}

// palette is the handful of colors a preset varies; everything else is
// derived from it.
type palette struct {
	text, muted, accent, author, mention, channel, link, code, loading, success, failure, selectedBg string
}

func (p palette) theme(name string) Theme {
	return Theme{
		Preset: name,
		Border: BorderTheme{
			Focused: makeStyle(p.accent, "", ""),
			Normal:  makeStyle(p.muted, "", ""),
		},
		Title: TitleTheme{
			Focused: makeStyle(p.text, "", "b"),
			Normal:  makeStyle(p.muted, "", ""),
		},
		ChannelsPicker: ChannelsPickerTheme{
			Channel:  makeStyle(p.text, "", ""),
			Member:   makeStyle(p.text, "", "b"),
			Selected: makeStyle(p.text, p.selectedBg, "b"),
		},
		MessagesList: MessagesListTheme{
			Message: makeStyle(p.text, "", ""),
			Author:  makeStyle(p.author, "", "b"),
		},
		MessageInput: MessageInputTheme{
			Text:        makeStyle(p.text, "", ""),
			Placeholder: makeStyle(p.muted, "", "d"),
		},
		StatusBar: StatusBarTheme{
			Background: makeStyle(p.text, "", ""),
			Loading:    makeStyle(p.loading, "", ""),
			Success:    makeStyle(p.success, "", ""),
			Error:      makeStyle(p.failure, "", "b"),
		},
		JoinButton: JoinButtonTheme{
			Normal:  makeStyle(p.text, p.selectedBg, ""),
			Focused: makeStyle(p.text, p.accent, "b"),
		},
		Markdown: MarkdownTheme{
			UserMention:    makeStyle(p.mention, "", "b"),
			ChannelMention: makeStyle(p.channel, "", "b"),
			SpecialMention: makeStyle(p.mention, "", "bu"),
			Link:           makeStyle(p.link, "", "u"),
			InlineCode:     makeStyle(p.code, "", ""),
			CodeFence:      makeStyle(p.muted, "", ""),
		},
	}
}

func defaultTheme() Theme {
	return palette{
		text: "white", muted: "gray", accent: "blue", author: "green",
		mention: "yellow", channel: "cyan", link: "blue", code: "gray",
		loading: "yellow", success: "green", failure: "red",
		selectedBg: "darkblue",
	}.theme("default")
}

func darkTheme() Theme {
	return palette{
		text: "#d0d0d0", muted: "#6c6c6c", accent: "#5f87af", author: "#87af87",
		mention: "#d7af5f", channel: "#5fafaf", link: "#5f87d7", code: "#8a8a8a",
		loading: "#d7af5f", success: "#87af87", failure: "#d75f5f",
		selectedBg: "#303030",
	}.theme("dark")
}

func lightTheme() Theme {
	return palette{
		text: "black", muted: "#808080", accent: "navy", author: "darkgreen",
		mention: "#af5f00", channel: "teal", link: "blue", code: "#5f5f5f",
		loading: "#af5f00", success: "darkgreen", failure: "maroon",
		selectedBg: "#d0d0d0",
	}.theme("light")
}

func monokaiTheme() Theme {
	return palette{
		text: "#f8f8f2", muted: "#75715e", accent: "#66d9ef", author: "#a6e22e",
		mention: "#e6db74", channel: "#66d9ef", link: "#fd971f", code: "#ae81ff",
		loading: "#e6db74", success: "#a6e22e", failure: "#f92672",
		selectedBg: "#49483e",
	}.theme("monokai")
}

func solarizedDarkTheme() Theme {
	return palette{
		text: "#839496", muted: "#586e75", accent: "#268bd2", author: "#859900",
		mention: "#b58900", channel: "#2aa198", link: "#268bd2", code: "#6c71c4",
		loading: "#b58900", success: "#859900", failure: "#dc322f",
		selectedBg: "#073642",
	}.theme("solarized_dark")
}
