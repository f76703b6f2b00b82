package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	"scraper/fetcher"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.DebounceInterval() != time.Second {
		t.Errorf("default debounce = %v, want 1s", cfg.DebounceInterval())
	}
	if !cfg.History.Enabled {
		t.Error("history should be enabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Fetcher.TimeoutSeconds != 30 || cfg.Query.Debounce != "1s" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[fetcher]
timeoutSeconds = 5
mode = "auto"

[query]
debounce = "250ms"

[history]
enabled = false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Fetcher.TimeoutSeconds != 5 {
		t.Errorf("timeout = %d", cfg.Fetcher.TimeoutSeconds)
	}
	if cfg.Fetcher.UserAgent == "" {
		t.Error("unset userAgent should keep the default")
	}
	if cfg.DebounceInterval() != 250*time.Millisecond {
		t.Errorf("debounce = %v", cfg.DebounceInterval())
	}
	if cfg.History.Enabled {
		t.Error("an explicit enabled = false should override the default")
	}
	if cfg.History.Limit != 20 {
		t.Errorf("history limit should keep default, got %d", cfg.History.Limit)
	}
	if opts := cfg.FetcherOptions(); opts.Mode != fetcher.ModeAuto || opts.TimeoutSeconds != 5 {
		t.Errorf("FetcherOptions = %+v", opts)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"unknown mode", "[fetcher]\nmode = \"ftp\"\n", ErrUnknownMode},
		{"negative timeout", "[fetcher]\ntimeoutSeconds = -1\n", ErrInvalid},
		{"bad debounce", "[query]\ndebounce = \"soon\"\n", ErrInvalid},
		{"zero debounce", "[query]\ndebounce = \"0s\"\n", ErrInvalid},
		{"ratio out of range", "[display]\ndocumentPaneRatio = 1.5\n", ErrInvalid},
		{"bad level", "[log]\nlevel = \"loud\"\n", ErrInvalid},
		{"unknown key", "[fetcher]\nretries = 3\n", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[fetcher\nmode = "))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !strings.Contains(err.Error(), "parsing config TOML") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Fetcher.Mode = "gopher"
	cfg.History.Limit = 0

	err := cfg.Validate()
	if !errors.Is(err, ErrUnknownMode) || !errors.Is(err, ErrInvalid) {
		t.Errorf("expected both problems to be reported, got %v", err)
	}
}

func TestDefaultTOMLRoundTrips(t *testing.T) {
	var cfg Config
	if _, err := toml.Decode(DefaultTOML(), &cfg); err != nil {
		t.Fatalf("DefaultTOML does not parse: %v", err)
	}

	def := Default()
	if cfg.Fetcher != def.Fetcher || cfg.Query != def.Query || cfg.Display != def.Display ||
		cfg.History != def.History || cfg.Log != def.Log {
		t.Errorf("DefaultTOML disagrees with Default():\n got %+v\nwant %+v", cfg, *def)
	}
}

func TestLogSettings(t *testing.T) {
	cfg := Default()
	if cfg.LogLevel() != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel())
	}
	cfg.Log.Level = "debug"
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel())
	}

	if filepath.Base(cfg.LogPath()) != "scraper.log" {
		t.Errorf("LogPath = %q", cfg.LogPath())
	}
	cfg.Log.File = "/tmp/custom.log"
	if cfg.LogPath() != "/tmp/custom.log" {
		t.Errorf("LogPath = %q", cfg.LogPath())
	}
}
