package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "250ms", "1s", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	// Try parsing as integer (milliseconds)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '250ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for zorderd.
type DaemonConfig struct {
	Watch   WatchConfig   `toml:"watch"`
	DBus    DBusConfig    `toml:"dbus"`
	Preview PreviewConfig `toml:"preview"`
}

// WatchConfig controls layout file hot-reload.
type WatchConfig struct {
	Enabled  bool     `toml:"enabled"`
	Debounce Duration `toml:"debounce"` // Quiet period before re-applying, e.g. "200ms"
}

// DBusConfig controls the session bus service.
type DBusConfig struct {
	Enabled bool `toml:"enabled"`
}

// PreviewConfig controls the GTK preview window.
type PreviewConfig struct {
	Enabled     bool   `toml:"enabled"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// DefaultDaemonConfig returns a DaemonConfig with default values.
func DefaultDaemonConfig() DaemonConfig {
	return DaemonConfig{
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: Duration(200 * time.Millisecond),
		},
		DBus: DBusConfig{
			Enabled: true,
		},
		Preview: PreviewConfig{
			Enabled:     false,
			Width:       480,
			Height:      360,
			ColorScheme: string(ColorSchemeSystem),
		},
	}
}

// Validate checks if the daemon configuration is valid.
func (c *DaemonConfig) Validate() error {
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch debounce must not be negative, got %s", c.Watch.Debounce.Duration())
	}

	if c.Preview.Width < 100 || c.Preview.Width > 4000 {
		return fmt.Errorf("preview width must be between 100 and 4000, got %d", c.Preview.Width)
	}
	if c.Preview.Height < 100 || c.Preview.Height > 4000 {
		return fmt.Errorf("preview height must be between 100 and 4000, got %d", c.Preview.Height)
	}

	validScheme := false
	for _, s := range ValidColorSchemes() {
		if c.Preview.ColorScheme == string(s) {
			validScheme = true
			break
		}
	}
	if !validScheme {
		return fmt.Errorf("invalid color scheme %q, must be one of: %v", c.Preview.ColorScheme, ValidColorSchemes())
	}

	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
