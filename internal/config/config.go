package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/m96-chan/slackline/internal/consts"
)

//go:embed config.toml
var defaultConfig []byte

// Config holds the application configuration.
type Config struct {
	Mouse        bool          `toml:"mouse"`
	HistoryLimit int           `toml:"history_limit"`
	PollInterval time.Duration `toml:"poll_interval"`

	Channels ChannelsConfig `toml:"channels"`
	API      APIConfig      `toml:"api"`
	Markdown MarkdownConfig `toml:"markdown"`

	Keybinds Keybinds `toml:"keybinds"`
	Theme    Theme    `toml:"theme"`
}

// ChannelsConfig controls channel-list fetching and refresh.
type ChannelsConfig struct {
	RefreshInterval time.Duration `toml:"refresh_interval"`
	PageSize        int           `toml:"page_size"`
	ProgressEvery   int           `toml:"progress_every"`
}

// APIConfig controls how the Slack API is called.
type APIConfig struct {
	RequestTimeout    time.Duration `toml:"request_timeout"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Burst             int           `toml:"burst"`
}

// MarkdownConfig controls message rendering.
type MarkdownConfig struct {
	SyntaxTheme string `toml:"syntax_theme"`
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, consts.Name, "config.toml")
}

// Load reads the config from the given path. If the file does not exist,
// it writes the default config and loads that. Config loading is two-phase:
// embedded defaults are applied first, then the user file overlays on top.
// A theme preset named in the user file replaces the default theme before
// the overlay, so individual styles can still be overridden.
func Load(path string) (*Config, error) {
	// Phase 1: unmarshal embedded defaults.
	cfg := Config{Theme: BuiltinTheme("default")}
	if err := toml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}

	// Write default config if file does not exist.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, defaultConfig, 0o600); err != nil {
			return nil, err
		}
	}

	var preset struct {
		Theme struct {
			Preset string `toml:"preset"`
		} `toml:"theme"`
	}
	if _, err := toml.DecodeFile(path, &preset); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if preset.Theme.Preset != "" {
		cfg.Theme = BuiltinTheme(preset.Theme.Preset)
	}

	// Phase 2: overlay user file on top of defaults.
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// applyDefaults resolves computed defaults that can't be expressed in TOML.
func applyDefaults(cfg *Config) {
	if cfg.API.Burst == 0 {
		cfg.API.Burst = max(1, int(cfg.API.RequestsPerSecond))
	}
	if cfg.Markdown.SyntaxTheme == "" {
		cfg.Markdown.SyntaxTheme = "monokai"
	}
}

// validate checks that config values are within acceptable ranges.
func validate(cfg *Config) error {
	if cfg.HistoryLimit < 1 || cfg.HistoryLimit > 1000 {
		return fmt.Errorf("history_limit must be between 1 and 1000, got %d", cfg.HistoryLimit)
	}
	if cfg.PollInterval < 500*time.Millisecond {
		return fmt.Errorf("poll_interval must be at least 500ms, got %s", cfg.PollInterval)
	}
	if cfg.Channels.RefreshInterval < time.Second {
		return fmt.Errorf("channels.refresh_interval must be at least 1s, got %s", cfg.Channels.RefreshInterval)
	}
	if cfg.Channels.PageSize < 1 || cfg.Channels.PageSize > 1000 {
		return fmt.Errorf("channels.page_size must be between 1 and 1000, got %d", cfg.Channels.PageSize)
	}
	if cfg.Channels.ProgressEvery < 1 {
		return fmt.Errorf("channels.progress_every must be >= 1, got %d", cfg.Channels.ProgressEvery)
	}
	if cfg.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive, got %s", cfg.API.RequestTimeout)
	}
	if cfg.API.RequestsPerSecond <= 0 {
		return fmt.Errorf("api.requests_per_second must be positive, got %g", cfg.API.RequestsPerSecond)
	}
	if cfg.API.Burst < 1 {
		return fmt.Errorf("api.burst must be >= 1, got %d", cfg.API.Burst)
	}
	if !slices.Contains(BuiltinThemeNames(), cfg.Theme.Preset) {
		return fmt.Errorf("unknown theme preset %q", cfg.Theme.Preset)
	}
	return nil
}
