package cmd

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m96-chan/slackline/internal/app"
	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/consts"
	"github.com/m96-chan/slackline/internal/keyring"
	"github.com/m96-chan/slackline/internal/logger"
)

// Build information, set by main.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Run parses CLI flags, sets up logging and config, and starts the app.
func Run() error {
	configPath := flag.String("config-path", config.DefaultPath(), "path to config file")
	logPath := flag.String("log-path", logger.DefaultPath(), "path to log file")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	cachePath := flag.String("cache-path", consts.ChannelCachePath(), "path to the channel cache database")
	setToken := flag.Bool("set-token", false, "read a bot token from stdin, store it in the system keyring and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s, %s)\n", consts.Name, Version, Commit, Date)
		return nil
	}

	if *setToken {
		return storeToken(os.Stdin)
	}

	level, err := logger.ParseLevel(*logLevel)
	if err != nil {
		return err
	}
	logFile, err := logger.Setup(*logPath, level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	slog.Info("starting slackline", "version", Version, "config", *configPath, "log", *logPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	return app.New(cfg, *cachePath).Run()
}

// storeToken reads one line from r and saves it as the bot token.
func storeToken(r io.Reader) error {
	token, err := readToken(r)
	if err != nil {
		return err
	}
	if err := keyring.SetBotToken(token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	fmt.Println("Token saved.")
	return nil
}

func readToken(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return "", errors.New("reading token: empty input")
	}
	return token, nil
}
