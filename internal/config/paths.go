package config

import (
	"os"
	"path/filepath"
)

// Dir returns the riffdeck config directory, ~/.riffdeck by default.
// RIFFDECK_DIR overrides it (used heavily by tests).
func Dir() (string, error) {
	if dir := os.Getenv("RIFFDECK_DIR"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".riffdeck"), nil
}

// DBPath is the local transcript cache database.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir, "riffdeck.db")
}

// IdentityPath is the persisted caller UUID file.
func (c *Config) IdentityPath() string {
	return filepath.Join(c.Dir, "identity")
}

// LogPath returns the configured log file, or empty for stderr only.
func (c *Config) LogPath() string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(c.Dir, c.Logging.File)
}

// EnsureDir creates the config directory if missing.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0755)
}
