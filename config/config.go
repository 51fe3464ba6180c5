// Package config manages application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ytsheets/internal/logging"
	"ytsheets/sheets"
)

// Config holds all application configuration for playlist synchronization.
type Config struct {
	// PlaylistID is the YouTube playlist to read (YOUTUBE_PLAYLIST_ID).
	PlaylistID string `yaml:"playlist_id"`
	// SpreadsheetID is the destination spreadsheet (GOOGLE_SPREADSHEET_ID).
	SpreadsheetID string `yaml:"spreadsheet_id"`
	// SheetName is the destination tab (default: "YouTube Videos")
	SheetName string `yaml:"sheet_name"`
	// StartCell anchors the header row (default: "A1")
	StartCell string `yaml:"start_cell"`
	// MaxResults is the playlist page size, capped at 50 by the API
	MaxResults int `yaml:"max_results"`

	// LogLevel is one of ERROR, WARN, INFO, DEBUG
	LogLevel string `yaml:"log_level"`

	Google  GoogleConfig  `yaml:"google"`
	YouTube ServiceConfig `yaml:"youtube"`
	Sheets  ServiceConfig `yaml:"sheets"`

	// MaxRetries is the number of attempts after the first failed sync
	MaxRetries int `yaml:"max_retries"`
	// RetryDelay is the fixed wait between attempts
	RetryDelay time.Duration `yaml:"retry_delay"`
	// RequestsPerSecond paces calls to each Google API host (0 = unlimited)
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// StatePath is the run history file
	StatePath string `yaml:"state_path"`
	// HistoryLimit is how many runs the history keeps (0 = all)
	HistoryLimit int `yaml:"history_limit"`
	// Interval repeats the sync when positive
	Interval time.Duration `yaml:"interval"`
}

// GoogleConfig holds the OAuth client shared by both services.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURI  string `yaml:"redirect_uri"`
	// RefreshToken is used by any service without its own.
	RefreshToken string `yaml:"refresh_token"`
}

// ServiceConfig holds per-service tokens.
type ServiceConfig struct {
	RefreshToken string `yaml:"refresh_token"`
	AccessToken  string `yaml:"access_token"`
	// APIKey is only honored for YouTube.
	APIKey string `yaml:"api_key"`
}

// Option adjusts the configuration after files and environment are applied,
// before validation. Command-line flags use it.
type Option func(*Config)

// ConfigError reports every configuration problem at once.
type ConfigError struct {
	// Missing lists required environment variables with no value.
	Missing []string
	// Invalid lists values that are present but unusable.
	Invalid []string
}

func (e *ConfigError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required variables: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid values: "+strings.Join(e.Invalid, "; "))
	}
	return "config: " + strings.Join(parts, "; ")
}

// ErrConfigFile is returned when an explicitly named config file cannot be read.
var ErrConfigFile = errors.New("config: cannot read config file")

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		SheetName:         "YouTube Videos",
		StartCell:         "A1",
		MaxResults:        50,
		LogLevel:          "INFO",
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
		RequestsPerSecond: 5,
		StatePath:         filepath.Join(home, ".config", "ytsheets", "runs.json"),
		HistoryLimit:      200,
	}
}

// Load builds the configuration.
// Priority: options > env vars (including .env) > config file > defaults.
// An empty path searches ytsheets.yaml in the current directory, then in
// ~/.config/ytsheets/.
func Load(path string, opts ...Option) (*Config, error) {
	cfg := DefaultConfig()

	// .env never overrides the real environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.loadFromFile(path); err != nil {
		// Config file is optional unless named explicitly
		if path != "" || !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrConfigFile, err)
		}
	}

	cfg.loadFromEnv()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads path, or the first ytsheets.yaml found when path is empty.
func (c *Config) loadFromFile(path string) error {
	paths := []string{path}
	if path == "" {
		home, _ := os.UserHomeDir()
		paths = []string{
			"ytsheets.yaml",
			filepath.Join(home, ".config", "ytsheets", "ytsheets.yaml"),
		}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) && path == "" {
				continue
			}
			return err
		}

		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", p, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables. Unparseable numbers
// are recorded so Validate can report them.
func (c *Config) loadFromEnv() {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	str("YOUTUBE_PLAYLIST_ID", &c.PlaylistID)
	str("GOOGLE_SPREADSHEET_ID", &c.SpreadsheetID)
	str("SHEET_NAME", &c.SheetName)
	str("START_CELL", &c.StartCell)
	str("LOG_LEVEL", &c.LogLevel)
	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("GOOGLE_REDIRECT_URI", &c.Google.RedirectURI)
	str("GOOGLE_REFRESH_TOKEN", &c.Google.RefreshToken)
	str("YOUTUBE_REFRESH_TOKEN", &c.YouTube.RefreshToken)
	str("YOUTUBE_ACCESS_TOKEN", &c.YouTube.AccessToken)
	str("YOUTUBE_API_KEY", &c.YouTube.APIKey)
	str("SHEETS_REFRESH_TOKEN", &c.Sheets.RefreshToken)
	str("SHEETS_ACCESS_TOKEN", &c.Sheets.AccessToken)
	str("YTSHEETS_STATE_PATH", &c.StatePath)

	if v := os.Getenv("MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxResults = n
		} else {
			c.MaxResults = -1
		}
	}
	if v := os.Getenv("YTSHEETS_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		} else {
			c.MaxRetries = -1
		}
	}
	if v := os.Getenv("YTSHEETS_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RetryDelay = d
		} else {
			c.RetryDelay = -1
		}
	}
	if v := os.Getenv("YTSHEETS_REQUESTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		} else {
			c.RequestsPerSecond = -1
		}
	}
	if v := os.Getenv("YTSHEETS_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryLimit = n
		} else {
			c.HistoryLimit = -1
		}
	}
	if v := os.Getenv("YTSHEETS_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Interval = d
		} else {
			c.Interval = -1
		}
	}
}

// YouTubeRefreshToken returns the YouTube token, falling back to the shared one.
func (c *Config) YouTubeRefreshToken() string {
	if c.YouTube.RefreshToken != "" {
		return c.YouTube.RefreshToken
	}
	return c.Google.RefreshToken
}

// SheetsRefreshToken returns the Sheets token, falling back to the shared one.
func (c *Config) SheetsRefreshToken() string {
	if c.Sheets.RefreshToken != "" {
		return c.Sheets.RefreshToken
	}
	return c.Google.RefreshToken
}

// Validate checks that configuration values are valid and consistent.
// It returns a *ConfigError listing every problem.
func (c *Config) Validate() error {
	e := &ConfigError{}

	if strings.TrimSpace(c.PlaylistID) == "" {
		e.Missing = append(e.Missing, "YOUTUBE_PLAYLIST_ID")
	}
	if strings.TrimSpace(c.SpreadsheetID) == "" {
		e.Missing = append(e.Missing, "GOOGLE_SPREADSHEET_ID")
	}

	youtubeAuthed := c.YouTube.APIKey != "" || c.YouTube.AccessToken != "" || c.YouTubeRefreshToken() != ""
	if !youtubeAuthed {
		e.Missing = append(e.Missing, "YOUTUBE_REFRESH_TOKEN (or GOOGLE_REFRESH_TOKEN or YOUTUBE_API_KEY)")
	}
	if c.Sheets.AccessToken == "" && c.SheetsRefreshToken() == "" {
		e.Missing = append(e.Missing, "SHEETS_REFRESH_TOKEN (or GOOGLE_REFRESH_TOKEN)")
	}
	if c.YouTubeRefreshToken() != "" || c.SheetsRefreshToken() != "" {
		if c.Google.ClientID == "" {
			e.Missing = append(e.Missing, "GOOGLE_CLIENT_ID")
		}
		if c.Google.ClientSecret == "" {
			e.Missing = append(e.Missing, "GOOGLE_CLIENT_SECRET")
		}
	}

	if c.SheetName == "" {
		e.Invalid = append(e.Invalid, "sheet_name must not be empty")
	}
	if _, err := sheets.ParseCell(c.StartCell); err != nil {
		e.Invalid = append(e.Invalid, fmt.Sprintf("start_cell %q is not an A1 reference", c.StartCell))
	}
	if c.MaxResults <= 0 {
		e.Invalid = append(e.Invalid, "max_results must be positive")
	}
	if !logging.ValidLevel(c.LogLevel) {
		e.Invalid = append(e.Invalid, fmt.Sprintf("log_level %q must be one of %s", c.LogLevel, strings.Join(logging.Levels, ", ")))
	}
	if c.MaxRetries < 0 {
		e.Invalid = append(e.Invalid, "max_retries must be non-negative")
	}
	if c.RetryDelay < 0 {
		e.Invalid = append(e.Invalid, "retry_delay must be non-negative")
	}
	if c.RequestsPerSecond < 0 {
		e.Invalid = append(e.Invalid, "requests_per_second must be non-negative")
	}
	if c.Interval < 0 {
		e.Invalid = append(e.Invalid, "interval must be non-negative")
	}
	if c.HistoryLimit < 0 {
		e.Invalid = append(e.Invalid, "history_limit must be non-negative")
	}

	if len(e.Missing) > 0 || len(e.Invalid) > 0 {
		return e
	}
	return nil
}
