package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("RIFFDECK_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "http://localhost:4400" {
		t.Errorf("api_url = %q", cfg.APIURL)
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.PollIntervalDuration() != DefaultPollInterval {
		t.Errorf("poll interval = %v", cfg.PollIntervalDuration())
	}
	if cfg.ReconcileDelayDuration() != DefaultReconcileDelay {
		t.Errorf("reconcile delay = %v", cfg.ReconcileDelayDuration())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIFFDECK_DIR", dir)
	yaml := "api_url: https://api.riffdeck.dev\npoll_interval: 2s\nreconcile_delay: 250ms\nlogging:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://api.riffdeck.dev" {
		t.Errorf("api_url = %q", cfg.APIURL)
	}
	if cfg.PollIntervalDuration() != 2*time.Second {
		t.Errorf("poll interval = %v", cfg.PollIntervalDuration())
	}
	if cfg.ReconcileDelayDuration() != 250*time.Millisecond {
		t.Errorf("reconcile delay = %v", cfg.ReconcileDelayDuration())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIFFDECK_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: https://file.example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RIFFDECK_API_URL", "https://env.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != "https://env.example" {
		t.Errorf("api_url = %q, want env override", cfg.APIURL)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIFFDECK_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("poll_interval: banana\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error for bad poll_interval")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RIFFDECK_DIR", dir)

	cfg := &Config{Dir: dir, APIURL: "https://api.riffdeck.dev", PollInterval: "3s"}
	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.APIURL != "https://api.riffdeck.dev" {
		t.Errorf("api_url = %q", got.APIURL)
	}
	if got.PollIntervalDuration() != 3*time.Second {
		t.Errorf("poll interval = %v", got.PollIntervalDuration())
	}
}
