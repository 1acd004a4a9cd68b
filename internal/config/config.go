package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for the sync engine timing knobs. The reconcile delay is a
// heuristic: after a send, the agent may produce a reply within a beat or
// two, so we wait briefly before re-fetching instead of racing a server
// that hasn't started processing yet.
const (
	DefaultPollInterval   = 5 * time.Second
	DefaultReconcileDelay = 500 * time.Millisecond
	DefaultMaxPollBackoff = time.Minute
	DefaultTimeoutSeconds = 15
)

// Config is the riffdeck client configuration, persisted in
// ~/.riffdeck/config.yaml.
type Config struct {
	APIURL            string        `yaml:"api_url"`
	TimeoutSeconds    int           `yaml:"timeout_seconds,omitempty"`
	PollInterval      string        `yaml:"poll_interval,omitempty"`      // e.g. "5s"
	ReconcileDelay    string        `yaml:"reconcile_delay,omitempty"`    // e.g. "500ms"
	MaxPollBackoff    string        `yaml:"max_poll_backoff,omitempty"`   // e.g. "1m"
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	Logging           LoggingConfig `yaml:"logging,omitempty"`

	// Dir is the config directory the file was loaded from; not serialized.
	Dir string `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Load reads config.yaml from the riffdeck directory. A missing file is not
// an error: defaults apply, so `riff` works against a local server out of
// the box. Environment variables override file values.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	if url := os.Getenv("RIFFDECK_API_URL"); url != "" {
		cfg.APIURL = url
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes config.yaml to the config's directory.
func Save(cfg *Config) error {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(cfg.Dir, "config.yaml"), data, 0644)
}

func (c *Config) applyDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:4400"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	for _, f := range []struct{ name, val string }{
		{"poll_interval", c.PollInterval},
		{"reconcile_delay", c.ReconcileDelay},
		{"max_poll_backoff", c.MaxPollBackoff},
	} {
		if f.val == "" {
			continue
		}
		if _, err := time.ParseDuration(f.val); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

// Timeout returns the per-request HTTP timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollIntervalDuration returns the poll period, falling back to the default
// when unset.
func (c *Config) PollIntervalDuration() time.Duration {
	return parseDurationOr(c.PollInterval, DefaultPollInterval)
}

// ReconcileDelayDuration returns the post-send reconciliation delay.
func (c *Config) ReconcileDelayDuration() time.Duration {
	return parseDurationOr(c.ReconcileDelay, DefaultReconcileDelay)
}

// MaxPollBackoffDuration returns the ceiling for the degraded-poll backoff.
func (c *Config) MaxPollBackoffDuration() time.Duration {
	return parseDurationOr(c.MaxPollBackoff, DefaultMaxPollBackoff)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
