package config

// Keybinds holds all keybinding configuration. Values are plain strings
// matching the tcell.EventKey.Name() format (e.g. "Rune[j]", "Ctrl+W", "Enter").
type Keybinds struct {
	Quit            string `toml:"quit"`
	FocusPicker     string `toml:"focus_picker"`
	FocusMessages   string `toml:"focus_messages"`
	FocusInput      string `toml:"focus_input"`
	ToggleMembers   string `toml:"toggle_members"`
	Join            string `toml:"join"`
	RefreshChannels string `toml:"refresh_channels"`

	ChannelsPicker ChannelsPickerKeybinds `toml:"channels_picker"`
	MessagesList   MessagesListKeybinds   `toml:"messages_list"`
	MessageInput   MessageInputKeybinds   `toml:"message_input"`
}

// ChannelsPickerKeybinds holds keybindings for the channel picker.
type ChannelsPickerKeybinds struct {
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Select string `toml:"select"`
	Clear  string `toml:"clear"`
}

// MessagesListKeybinds holds keybindings for the messages list panel.
type MessagesListKeybinds struct {
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Top    string `toml:"top"`
	Bottom string `toml:"bottom"`
}

// MessageInputKeybinds holds keybindings for the message input area.
type MessageInputKeybinds struct {
	Send   string `toml:"send"`
	Cancel string `toml:"cancel"`
}
