package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Intervals lists the trend bucket widths (in minutes) the dashboard can
// cycle through. Mirrors what the server aggregates.
var Intervals = []int{15, 30, 60, 180, 360, 10080}

type Config struct {
	ServerURL       string `yaml:"server_url"`
	NewsLimit       int    `yaml:"news_limit,omitempty"`
	IntervalMinutes int    `yaml:"interval_minutes,omitempty"`
	PollInterval    string `yaml:"poll_interval,omitempty"`
}

// GetNewsLimit returns the per-category article limit, defaulting to 5.
func (c *Config) GetNewsLimit() int {
	if c.NewsLimit <= 0 {
		return 5
	}
	return c.NewsLimit
}

// GetIntervalMinutes returns the trend bucket width, defaulting to 60.
func (c *Config) GetIntervalMinutes() int {
	if c.IntervalMinutes <= 0 {
		return 60
	}
	return c.IntervalMinutes
}

func (c *Config) PollDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "newspulse", "config.yaml")
}

// SessionPath is the durable client-side store: bearer token, chat
// transcript, session flags and the last committed news snapshot.
func SessionPath() string {
	return filepath.Join(xdg.DataHome, "newspulse", "session.db")
}

// LogPath is where the dashboard writes its log; the TUI owns the terminal.
func LogPath() string {
	return filepath.Join(xdg.StateHome, "newspulse", "newspulse.log")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	u, err := url.Parse(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url scheme must be http or https, got %q", u.Scheme)
	}
	if cfg.PollInterval != "" {
		if _, err := time.ParseDuration(cfg.PollInterval); err != nil {
			return fmt.Errorf("invalid poll_interval %q: %w", cfg.PollInterval, err)
		}
	}
	return nil
}
