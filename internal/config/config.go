// Package config handles TOML configuration loading with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the top-level configuration for fsanalyze.
type Config struct {
	Output OutputConfig `toml:"output"`
	DB     DBConfig     `toml:"db"`
	Log    LogConfig    `toml:"log"`
}

// OutputConfig controls default output behavior; CLI flags override it.
type OutputConfig struct {
	// Mode is one of "all", "events", "summary".
	Mode string `toml:"mode"`
	// Format is one of "text", "json".
	Format string `toml:"format"`
}

// DBConfig controls result persistence.
type DBConfig struct {
	// Path is the SQLite file used when the --database flag is absent.
	// Empty disables persistence by default.
	Path string `toml:"path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Mode:   "all",
			Format: "text",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "fsanalyze", "config.toml")
}

// Load reads configuration from the given path, falling back to defaults
// for any unset fields. If the file does not exist, returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Output.Mode {
	case "all", "events", "summary":
	default:
		return fmt.Errorf("invalid output.mode %q", c.Output.Mode)
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format %q", c.Output.Format)
	}
	return nil
}
