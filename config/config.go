// Package config provides configuration loading for scraper using TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"scraper/fetcher"
)

// appName names the per-user directories under the XDG base dirs.
const appName = "scraper"

// ErrUnknownMode is returned by Validate for a fetcher mode other than
// http, browser or auto.
var ErrUnknownMode = fetcher.ErrUnknownMode

// ErrInvalid wraps every other validation failure.
var ErrInvalid = errors.New("invalid config")

// Fetcher holds HTTP fetching settings.
type Fetcher struct {
	UserAgent      string `toml:"userAgent"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	Mode           string `toml:"mode"`       // http, browser or auto
	ChromePath     string `toml:"chromePath"` // empty = auto-detect
}

// Query holds selector query settings.
type Query struct {
	Debounce string `toml:"debounce"` // idle time before a query runs, e.g. "1s"
}

// Display holds layout settings for the interactive view.
type Display struct {
	PanelHeight       int     `toml:"panelHeight"`       // max body lines of an expanded panel
	DocumentPaneRatio float64 `toml:"documentPaneRatio"` // share of the width given to the document pane
}

// History holds settings for the fetch and query history store.
type History struct {
	Enabled bool `toml:"enabled"`
	Limit   int  `toml:"limit"` // rows shown by `scraper history` and cycled by Ctrl-R
}

// Log holds logging settings.
type Log struct {
	Level string `toml:"level"` // debug, info, warn or error
	File  string `toml:"file"`  // empty = $XDG_STATE_HOME/scraper/scraper.log
}

// Config is the main configuration struct.
type Config struct {
	Fetcher Fetcher `toml:"fetcher"`
	Query   Query   `toml:"query"`
	Display Display `toml:"display"`
	History History `toml:"history"`
	Log     Log     `toml:"log"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Fetcher: Fetcher{
			UserAgent:      fetcher.DefaultOptions().UserAgent,
			TimeoutSeconds: 30,
			Mode:           string(fetcher.ModeHTTP),
		},
		Query: Query{
			Debounce: "1s",
		},
		Display: Display{
			PanelHeight:       12,
			DocumentPaneRatio: 0.5,
		},
		History: History{
			Enabled: true,
			Limit:   20,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// Dir returns the configuration directory.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// Path returns the path to the user's config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns where the history database lives.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns where the log file lives.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// Load loads configuration, layering the file at path on top of defaults.
// An empty path means Path(). A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = Path()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	user, md, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("loading config from %s: %w: unknown keys %s", path, ErrInvalid, strings.Join(keys, ", "))
	}

	merged := merge(cfg, user, md)
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return merged, nil
}

func loadFromTOML(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, md, nil
}

// merge layers user config on top of defaults. Strings and numbers override
// when non-zero; booleans override when the key is present in the file.
func merge(defaults, user *Config, md toml.MetaData) *Config {
	result := *defaults

	// Fetcher
	if user.Fetcher.UserAgent != "" {
		result.Fetcher.UserAgent = user.Fetcher.UserAgent
	}
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	if user.Fetcher.Mode != "" {
		result.Fetcher.Mode = user.Fetcher.Mode
	}
	if user.Fetcher.ChromePath != "" {
		result.Fetcher.ChromePath = user.Fetcher.ChromePath
	}

	// Query
	if user.Query.Debounce != "" {
		result.Query.Debounce = user.Query.Debounce
	}

	// Display
	if user.Display.PanelHeight != 0 {
		result.Display.PanelHeight = user.Display.PanelHeight
	}
	if user.Display.DocumentPaneRatio != 0 {
		result.Display.DocumentPaneRatio = user.Display.DocumentPaneRatio
	}

	// History
	if md.IsDefined("history", "enabled") {
		result.History.Enabled = user.History.Enabled
	}
	if user.History.Limit != 0 {
		result.History.Limit = user.History.Limit
	}

	// Log
	if user.Log.Level != "" {
		result.Log.Level = user.Log.Level
	}
	if user.Log.File != "" {
		result.Log.File = user.Log.File
	}

	return &result
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if _, err := fetcher.ParseMode(c.Fetcher.Mode); err != nil {
		errs = append(errs, fmt.Errorf("fetcher.mode: %w", err))
	}
	if c.Fetcher.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: fetcher.timeoutSeconds must be positive, got %d", ErrInvalid, c.Fetcher.TimeoutSeconds))
	}
	if d, err := time.ParseDuration(c.Query.Debounce); err != nil {
		errs = append(errs, fmt.Errorf("%w: query.debounce: %v", ErrInvalid, err))
	} else if d <= 0 {
		errs = append(errs, fmt.Errorf("%w: query.debounce must be positive, got %s", ErrInvalid, d))
	}
	if c.Display.PanelHeight <= 0 {
		errs = append(errs, fmt.Errorf("%w: display.panelHeight must be positive, got %d", ErrInvalid, c.Display.PanelHeight))
	}
	if r := c.Display.DocumentPaneRatio; r <= 0 || r >= 1 {
		errs = append(errs, fmt.Errorf("%w: display.documentPaneRatio must be between 0 and 1, got %g", ErrInvalid, r))
	}
	if c.History.Limit <= 0 {
		errs = append(errs, fmt.Errorf("%w: history.limit must be positive, got %d", ErrInvalid, c.History.Limit))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("%w: log.level: %v", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

// DebounceInterval returns query.debounce as a duration, or one second if it
// does not parse.
func (c *Config) DebounceInterval() time.Duration {
	d, err := time.ParseDuration(c.Query.Debounce)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

// LogLevel returns log.level as a slog.Level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogPath returns log.file or the default log location.
func (c *Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(StateDir(), appName+".log")
}

// FetcherOptions converts the fetcher section for fetcher.New. The mode is
// assumed to have passed Validate.
func (c *Config) FetcherOptions() fetcher.Options {
	mode, _ := fetcher.ParseMode(c.Fetcher.Mode)
	return fetcher.Options{
		UserAgent:      c.Fetcher.UserAgent,
		TimeoutSeconds: c.Fetcher.TimeoutSeconds,
		ChromePath:     c.Fetcher.ChromePath,
		Mode:           mode,
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used by `scraper init-config` to generate a user config file.
func DefaultTOML() string {
	return `# scraper configuration
# Save to ` + Path() + ` and customize
# Only include settings you want to change from defaults

# HTTP fetching settings
[fetcher]
userAgent = "` + fetcher.DefaultOptions().UserAgent + `"
timeoutSeconds = 30
mode = "http"                 # http, browser (headless Chrome) or auto (Chrome only for bot challenges)
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)

# Selector queries
[query]
debounce = "1s"               # Idle time after the last keystroke before the query runs

# Interactive view
[display]
panelHeight = 12              # Max lines shown for an expanded match
documentPaneRatio = 0.5       # Share of the screen width given to the document

# Fetch and query history
[history]
enabled = true
limit = 20

# Logging
[log]
level = "info"                # debug, info, warn or error
file = ""                     # Empty = $XDG_STATE_HOME/scraper/scraper.log
`
}

// FormatError formats a config loading error for user display.
func FormatError(err error) string {
	return fmt.Sprintf("Configuration error:\n\n%s", err.Error())
}
