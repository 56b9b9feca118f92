// Package config handles maestro configuration and the agent catalog.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for maestro.
type Config struct {
	Host    HostConfig    `yaml:"host"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

// HostConfig defines how maestro talks to the multiplexer.
type HostConfig struct {
	// Provider selects the host backend. Only "tmux" is implemented.
	Provider string `yaml:"provider"`
	// PollInterval is how often the host backend snapshots tabs and panes.
	PollInterval time.Duration `yaml:"poll_interval"`
}

// JournalConfig defines the reconciliation journal database.
type JournalConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Database string `yaml:"database"`
}

// LoggingConfig defines structured logging output.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	LogFile   string `yaml:"log_file"`
	SentryDSN string `yaml:"sentry_dsn"`
}

// UIConfig defines TUI behavior.
type UIConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Host: HostConfig{
			Provider:     "tmux",
			PollInterval: time.Second,
		},
		Journal: JournalConfig{
			Enabled:  true,
			Database: filepath.Join(homeDir, ".local/share/maestro/journal.db"),
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: filepath.Join(homeDir, ".local/share/maestro/maestro.log"),
		},
		UI: UIConfig{
			RefreshInterval: time.Second,
		},
	}
}

// Load reads configuration from the default path, falling back to defaults
// when the file does not exist.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config/maestro/config.yaml")
}

// DefaultAgentsPath returns the default agent catalog file path.
func DefaultAgentsPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config/maestro/agents.yaml")
}
