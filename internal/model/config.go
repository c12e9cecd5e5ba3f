package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SourceConfig holds the configuration for a single intake source.
type SourceConfig struct {
	// ID is the unique identifier for this source instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Type identifies the source kind ("jira" or "email").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// BaseURL is the root URL of the source service, or host:port for IMAP.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// Enabled controls whether this source is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// PollIntervalSec is how often (in seconds) to fetch new items.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// Config holds source-specific settings (jql, username, mailbox, ...).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// UserConfig selects the user scope the local surfaces operate on.
type UserConfig struct {
	ID          string `mapstructure:"id" yaml:"id"`
	StoryPrefix string `mapstructure:"story_prefix" yaml:"story_prefix" validate:"omitempty,max=16,storyprefix"`
}

// AIConfig holds defaults for story generation.
type AIConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// SyncConfig configures change notification.
type SyncConfig struct {
	// WatchExternal reloads the board when another process writes the database.
	WatchExternal bool `mapstructure:"watch_external" yaml:"watch_external"`
	DebounceMS    int  `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
	File        string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	User     UserConfig     `mapstructure:"user" yaml:"user"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Sync     SyncConfig     `mapstructure:"sync" yaml:"sync"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Sources  []SourceConfig `mapstructure:"sources" yaml:"sources"`
}

// ConfigDir returns ~/.config/sprintboard, or the working directory when the
// home directory cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sprintboard")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	dir := ConfigDir()
	return &AppConfig{
		Database: DatabaseConfig{Path: filepath.Join(dir, "sprintboard.db")},
		User:     UserConfig{ID: "local", StoryPrefix: DefaultStoryPrefix},
		AI: AIConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Sync:   SyncConfig{WatchExternal: true, DebounceMS: 250},
		Log:    LogConfig{Level: "info", File: filepath.Join(dir, "sprintboard.log")},
		Display: DisplayConfig{
			Theme: "default",
		},
		Sources: []SourceConfig{},
	}
}

// setDefaults registers every default so env overrides resolve for keys the
// file omits.
func setDefaults(v *viper.Viper) {
	d := DefaultAppConfig()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("user.id", d.User.ID)
	v.SetDefault("user.story_prefix", d.User.StoryPrefix)
	v.SetDefault("ai.provider", d.AI.Provider)
	v.SetDefault("ai.model", d.AI.Model)
	v.SetDefault("ai.max_tokens", d.AI.MaxTokens)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.cors_origins", []string{})
	v.SetDefault("sync.watch_external", d.Sync.WatchExternal)
	v.SetDefault("sync.debounce_ms", d.Sync.DebounceMS)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("display.theme", d.Display.Theme)
}

// NewViper returns a viper instance with defaults and SPRINTBOARD_* env
// bindings, reading path if it exists.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SPRINTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return v, nil
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults, still subject to env overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return ConfigFromViper(v)
}

// ConfigFromViper decodes an already prepared viper instance.
func ConfigFromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	for i := range cfg.Sources {
		if cfg.Sources[i].PollIntervalSec == 0 {
			cfg.Sources[i].PollIntervalSec = 300
		}
		if !cfg.Sources[i].Enabled {
			// Viper unmarshals missing bools as false; treat unset as true.
			key := fmt.Sprintf("sources.%d.enabled", i)
			if !v.IsSet(key) {
				cfg.Sources[i].Enabled = true
			}
		}
	}
	if cfg.User.StoryPrefix == "" {
		cfg.User.StoryPrefix = DefaultStoryPrefix
	}
	if err := Validate(cfg.User); err != nil {
		return nil, fmt.Errorf("user config: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("user", cfg.User)
	v.Set("ai", cfg.AI)
	v.Set("server", cfg.Server)
	v.Set("sync", cfg.Sync)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)
	v.Set("sources", cfg.Sources)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
