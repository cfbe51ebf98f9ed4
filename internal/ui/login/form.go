package login

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/keyring"
	slackclient "github.com/m96-chan/slackline/internal/slack"
)

// DoneFn is called after successful authentication with the validated client.
type DoneFn func(client *slackclient.Client)

// Form is a tview form that prompts for a Slack bot token.
type Form struct {
	*tview.Form
	app        *tview.Application
	cfg        *config.Config
	done       DoneFn
	tokenField *tview.InputField
	errText    string
}

// New creates a login form shown when no usable bot token is configured.
func New(app *tview.Application, cfg *config.Config, done DoneFn) *Form {
	f := &Form{
		Form: tview.NewForm(),
		app:  app,
		cfg:  cfg,
		done: done,
	}

	f.tokenField = tview.NewInputField().
		SetLabel("Bot Token (xoxb-)").
		SetMaskCharacter('*')

	f.AddFormItem(f.tokenField).
		AddButton("Login", f.submit).
		AddButton("Quit", func() { f.app.Stop() }).
		SetBorder(true).
		SetTitle(" slackline login ").
		SetTitleAlign(tview.AlignCenter)

	return f
}

// submit validates the token, saves it to the keyring, and calls the done
// callback.
func (f *Form) submit() {
	token := strings.TrimSpace(f.tokenField.GetText())
	if token == "" {
		f.showError("A bot token is required.")
		return
	}

	client := slackclient.New(token, slackclient.Options{
		RequestTimeout:    f.cfg.API.RequestTimeout,
		RequestsPerSecond: f.cfg.API.RequestsPerSecond,
		Burst:             f.cfg.API.Burst,
	})

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.API.RequestTimeout)
	defer cancel()
	if err := client.AuthTest(ctx); err != nil {
		f.showError("Authentication failed: " + err.Error())
		return
	}

	if err := keyring.SetBotToken(token); err != nil {
		slog.Warn("failed to store bot token in keyring", "error", err)
	}

	f.done(client)
}

// showError displays a modal error message and returns to the form on dismiss.
func (f *Form) showError(msg string) {
	f.errText = msg
	modal := tview.NewModal().
		SetText(msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(_ int, _ string) {
			f.app.SetRoot(f, true)
		})
	f.app.SetRoot(modal, true)
}
