package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/cache"
	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/engine"
	"github.com/m96-chan/slackline/internal/keyring"
	"github.com/m96-chan/slackline/internal/markdown"
	"github.com/m96-chan/slackline/internal/model"
	slackclient "github.com/m96-chan/slackline/internal/slack"
	"github.com/m96-chan/slackline/internal/ui/chat"
	"github.com/m96-chan/slackline/internal/ui/keys"
	"github.com/m96-chan/slackline/internal/ui/login"
	"github.com/m96-chan/slackline/internal/users"
)

// Syncer is the part of the sync engine the UI drives.
type Syncer interface {
	Events() <-chan engine.Event
	Watch(channelID string)
	StopWatching()
	Send(text string)
	JoinCurrent()
	LoadMembers(channelID string)
	RefreshChannels(ctx context.Context)
	Close()
}

// App is the top-level application struct.
type App struct {
	Config    *config.Config
	CachePath string

	tview  *tview.Application
	view   *chat.View
	sync   Syncer
	store  *cache.Store
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new App with the given config. cachePath locates the
// channel-list cache file.
func New(cfg *config.Config, cachePath string) *App {
	return &App{
		Config:    cfg,
		CachePath: cachePath,
		tview:     tview.NewApplication(),
	}
}

// Run starts the TUI event loop. It authenticates with the stored bot token
// and shows the login form when the token is missing or invalid.
func (a *App) Run() error {
	a.ctx, a.cancel = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer a.cancel()
	defer a.closeSession()

	go func() {
		<-a.ctx.Done()
		a.tview.Stop()
	}()

	a.tview.EnableMouse(a.Config.Mouse)
	a.tview.SetInputCapture(a.handleGlobalKey)

	token, err := keyring.GetBotToken()
	switch {
	case err == nil:
		client := a.newClient(token)
		if err := client.AuthTest(a.ctx); err != nil {
			slog.Warn("stored token invalid, showing login", "error", err)
			a.showLogin()
		} else {
			a.startSession(client)
		}
	case errors.Is(err, keyring.ErrNoToken):
		a.showLogin()
	default:
		return err
	}

	return a.tview.Run()
}

func (a *App) newClient(token string) *slackclient.Client {
	return slackclient.New(token, slackclient.Options{
		RequestTimeout:    a.Config.API.RequestTimeout,
		RequestsPerSecond: a.Config.API.RequestsPerSecond,
		Burst:             a.Config.API.Burst,
	})
}

// showLogin sets the root to the login form.
func (a *App) showLogin() {
	form := login.New(a.tview, a.Config, a.startSession)
	a.tview.SetRoot(form, true)
}

// startSession opens the channel cache, builds the engine for client and
// shows the main layout.
func (a *App) startSession(client *slackclient.Client) {
	slog.Info("authenticated", "user", client.UserID, "team", client.Team)

	var opts []engine.Option
	store, err := cache.Open(a.CachePath)
	if err != nil {
		slog.Warn("channel cache unavailable", "path", a.CachePath, "error", err)
	} else {
		a.store = store
		opts = append(opts, engine.WithStore(store))
	}

	tr := markdown.NewTranslator(markdownColors(a.Config.Theme), a.Config.Markdown.SyntaxTheme)
	eng := engine.New(client, users.NewDirectory(client), tr, engineConfig(a.Config), opts...)

	a.start(eng)
}

// closeSession stops the engine and closes the cache after the TUI exits.
func (a *App) closeSession() {
	if a.sync != nil {
		a.sync.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close channel cache", "error", err)
		}
	}
}

// start builds the view around s and begins consuming its events.
func (a *App) start(s Syncer) {
	a.sync = s
	a.view = chat.New(a.tview, a.Config)
	a.wire()

	a.tview.SetRoot(a.view, true)
	a.view.FocusPanel(chat.PanelPicker)
	a.view.StatusBar.SetStatus(engine.StatusLoading, "Select a channel")

	go a.consumeEvents(s.Events())
	s.RefreshChannels(a.ctx)
}

// wire connects view callbacks to the engine.
func (a *App) wire() {
	a.view.Picker.SetOnSelect(a.onChannelSelected)
	a.view.Picker.SetOnNotFound(func(name string) {
		a.view.StatusBar.SetStatus(engine.StatusError, fmt.Sprintf("Channel '#%s' not found", name))
	})

	a.view.Input.SetOnSend(a.sync.Send)
	a.view.Input.SetOnCancel(a.back)
	a.view.Join.SetOnJoin(a.sync.JoinCurrent)
}

// consumeEvents hands every engine event to the UI goroutine. It returns
// when the engine closes its event channel.
func (a *App) consumeEvents(events <-chan engine.Event) {
	for ev := range events {
		a.tview.QueueUpdateDraw(func() {
			a.handleEvent(ev)
		})
	}
}

// handleEvent applies one engine event to the view. It must run on the
// tview event loop.
func (a *App) handleEvent(ev engine.Event) {
	current, watching := a.view.Channel()

	switch ev := ev.(type) {
	case engine.StatusEvent:
		a.view.StatusBar.SetStatus(ev.Kind, ev.Text)

	case engine.ChannelsEvent:
		a.view.Picker.SetData(ev.Channels)

	case engine.MessagesEvent:
		if watching && ev.ChannelID == current.ID {
			a.view.Messages.Apply(ev)
		}

	case engine.MembershipEvent:
		if !watching || ev.ChannelID != current.ID {
			return
		}
		notMember := ev.Membership == model.MembershipNotMember
		a.view.SetJoinVisible(notMember)
		if notMember {
			a.view.Join.SetBusy(false)
		}

	case engine.MembersEvent:
		if watching && ev.ChannelID == current.ID {
			a.view.Members.SetMembers(ev.ChannelID, ev.Members)
		}

	case engine.SentEvent:
		if ev.OK && watching && ev.ChannelID == current.ID {
			a.view.Input.Clear()
		}
	}
}

func (a *App) onChannelSelected(ch model.Channel) {
	slog.Debug("channel selected", "channel", ch.ID, "name", ch.Name)
	a.view.ShowChat(ch)
	a.view.StatusBar.SetStatus(engine.StatusSuccess, fmt.Sprintf("Ready to send message to #%s", ch.Name))
	a.sync.Watch(ch.ID)
}

// back returns to the channel selection screen.
func (a *App) back() {
	a.sync.StopWatching()
	a.view.ShowPicker()
	a.view.StatusBar.SetStatus(engine.StatusSuccess, "Select a channel")
}

// shutdown stops the TUI; Run then closes the engine.
func (a *App) shutdown() {
	if a.cancel != nil {
		a.cancel()
	}
	a.tview.Stop()
}

// handleGlobalKey processes global keybindings. It returns nil to consume the
// event or the original event to let it propagate.
func (a *App) handleGlobalKey(event *tcell.EventKey) *tcell.EventKey {
	if keys.Matches(event, a.Config.Keybinds.Quit) {
		a.shutdown()
		return nil
	}

	// Nothing else applies until a session is running.
	if a.view == nil || a.sync == nil {
		return event
	}

	switch {
	case keys.Matches(event, a.Config.Keybinds.RefreshChannels):
		a.sync.RefreshChannels(a.ctx)
		return nil

	case keys.Matches(event, a.Config.Keybinds.FocusPicker):
		if a.view.OnChatScreen() {
			a.back()
		} else {
			a.view.FocusPanel(chat.PanelPicker)
		}
		return nil
	}

	if ch, ok := a.view.Channel(); ok {
		switch {
		case keys.Matches(event, a.Config.Keybinds.Join):
			if a.view.JoinVisible() && !a.view.Join.Busy() {
				a.view.Join.SetBusy(true)
				a.sync.JoinCurrent()
			}
			return nil

		case keys.Matches(event, a.Config.Keybinds.ToggleMembers):
			if a.view.ToggleMembers() {
				a.sync.LoadMembers(ch.ID)
			}
			return nil
		}
	}

	return a.view.HandleKey(event)
}

// engineConfig maps the user config onto the engine's tuning knobs.
func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		HistoryLimit:    cfg.HistoryLimit,
		PollInterval:    cfg.PollInterval,
		RefreshInterval: cfg.Channels.RefreshInterval,
		PageSize:        cfg.Channels.PageSize,
		ProgressEvery:   cfg.Channels.ProgressEvery,
		RequestTimeout:  cfg.API.RequestTimeout,
	}
}

// markdownColors converts theme styles to tview tag strings for the
// markdown renderer.
func markdownColors(t config.Theme) markdown.MarkdownColors {
	return markdown.MarkdownColors{
		UserMention:    t.Markdown.UserMention.Tag(),
		ChannelMention: t.Markdown.ChannelMention.Tag(),
		SpecialMention: t.Markdown.SpecialMention.Tag(),
		Link:           t.Markdown.Link.Tag(),
		InlineCode:     t.Markdown.InlineCode.Tag(),
		CodeFence:      t.Markdown.CodeFence.Tag(),
		Author:         t.MessagesList.Author.Tag(),
	}
}
