package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadDefaults()
	if err != nil {
		t.Fatalf("loadDefaults: %v", err)
	}
	if cfg.ServerURL == "" {
		t.Error("expected server_url to be set")
	}
	if cfg.GetNewsLimit() <= 0 {
		t.Error("expected positive news limit")
	}
}

func TestGetIntervalMinutes(t *testing.T) {
	cfg := &Config{IntervalMinutes: 180}
	if got := cfg.GetIntervalMinutes(); got != 180 {
		t.Errorf("expected 180, got %d", got)
	}

	cfg.IntervalMinutes = 0
	if got := cfg.GetIntervalMinutes(); got != 60 {
		t.Errorf("expected default 60, got %d", got)
	}
}

func TestPollDuration(t *testing.T) {
	cfg := &Config{PollInterval: "2m"}
	if d := cfg.PollDuration(); d.Minutes() != 2 {
		t.Errorf("expected 2m, got %v", d)
	}

	cfg.PollInterval = "invalid"
	if d := cfg.PollDuration(); d.Minutes() != 5 {
		t.Errorf("expected 5m default for invalid interval, got %v", d)
	}
}

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerURL == "" {
		t.Error("expected server_url from defaults")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected defaults written to %s: %v", path, err)
	}
}

func TestLoadRejectsBadServerURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: \"ftp://example.com\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for non-http server_url")
	}
}

func TestLoadRejectsBadPollInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server_url: \"http://localhost:8000\"\npoll_interval: nonsense\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for unparsable poll_interval")
	}
}
