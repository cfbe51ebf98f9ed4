package keyring

import (
	"errors"
	"fmt"
	"os"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/m96-chan/slackline/internal/consts"
)

const botTokenUser = "bot_token"

// Environment variables checked before the keyring, in order.
var tokenEnvVars = []string{"SLACKLINE_BOT_TOKEN", "SLACK_BOT_TOKEN"}

// ErrNoToken is returned when no bot token is configured anywhere.
var ErrNoToken = errors.New("no bot token: set SLACKLINE_BOT_TOKEN or run with --set-token")

// GetBotToken returns the bot token from the environment, falling back to
// the system keyring.
func GetBotToken() (string, error) {
	for _, name := range tokenEnvVars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}

	token, err := gokeyring.Get(consts.Name, botTokenUser)
	if errors.Is(err, gokeyring.ErrNotFound) || (err == nil && token == "") {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return token, nil
}

// SetBotToken stores the bot token in the system keyring.
func SetBotToken(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	return gokeyring.Set(consts.Name, botTokenUser, token)
}

// DeleteBotToken removes the bot token from the system keyring.
func DeleteBotToken() error {
	return gokeyring.Delete(consts.Name, botTokenUser)
}
