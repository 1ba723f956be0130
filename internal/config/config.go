// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultLayoutName   = "default"
	DefaultOutputFormat = "plain"
)

// OutputFormats lists the accepted output format names.
var OutputFormats = []string{"plain", "json", "yaml", "names"}

// Config represents the zorder configuration.
type Config struct {
	Layout   LayoutConfig   `toml:"layout"`
	Registry RegistryConfig `toml:"registry"`
	Output   OutputConfig   `toml:"output"`
	TUI      TUIConfig      `toml:"tui"`
	Daemon   DaemonConfig   `toml:"daemon"`
}

// LayoutConfig selects the layout document to load.
type LayoutConfig struct {
	Path string `toml:"path"` // Layout file; empty = DataPath()/layout.xml if present
	Name string `toml:"name"` // Embedded layout used when no file exists
}

// RegistryConfig holds ordering engine options.
type RegistryConfig struct {
	Strict bool `toml:"strict"` // Panic on contract violations instead of logging
}

// OutputConfig holds default output options.
type OutputConfig struct {
	Format    string `toml:"format"`     // plain, json, yaml, names
	ShowIndex bool   `toml:"show_index"` // Prefix plain output with sibling positions
}

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	ShowHelp         bool   `toml:"show_help"`
	ShowUntracked    bool   `toml:"show_untracked"`    // List views without a z-order
	ClipboardCommand string `toml:"clipboard_command"` // Empty = auto-detect
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Layout: LayoutConfig{
			Path: "",
			Name: DefaultLayoutName,
		},
		Registry: RegistryConfig{
			Strict: true,
		},
		Output: OutputConfig{
			Format:    DefaultOutputFormat,
			ShowIndex: true,
		},
		TUI: TUIConfig{
			ShowHelp:      true,
			ShowUntracked: true,
		},
		Daemon: DefaultDaemonConfig(),
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "zorder", "config.toml")
}

// DataPath returns the path to the data directory.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share.
func DataPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "zorder")
}

// DefaultLayoutPath returns the default layout file location.
func DefaultLayoutPath() string {
	return filepath.Join(DataPath(), "layout.xml")
}

// LayoutPath returns the configured layout path, or the default location.
func (c *Config) LayoutPath() string {
	if c.Layout.Path != "" {
		return expandPath(c.Layout.Path)
	}
	return DefaultLayoutPath()
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q, must be one of: %v", c.Output.Format, OutputFormats)
	}
	return c.Daemon.Validate()
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	path := DataPath()
	if path == "" {
		return errors.New("unable to determine data directory")
	}
	return os.MkdirAll(path, 0755)
}
