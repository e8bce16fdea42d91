package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Theme selects the color palette. Auto resolves against the OS appearance
// at startup.
type Theme string

const (
	ThemeAuto  Theme = "auto"
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

const defaultWidthCols = 24

// PanelConfig holds tab panel settings.
type PanelConfig struct {
	// WidthCols is the panel width in cells, rewritten when a resize
	// drag commits.
	WidthCols int `toml:"width_cols"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// File is the log destination. Empty means a default path next to
	// the config file.
	File  string `toml:"file"`
	Debug bool   `toml:"debug"`
}

// Config holds the full configuration.
type Config struct {
	Theme Theme       `toml:"theme"`
	Panel PanelConfig `toml:"panel"`
	Log   LogConfig   `toml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Theme: ThemeAuto,
		Panel: PanelConfig{WidthCols: defaultWidthCols},
	}
}

// Dir returns the directory holding config.toml, honoring XDG_CONFIG_HOME.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tabrail")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "tabrail")
	}
	return filepath.Join(home, ".config", "tabrail")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads path, layering the file over the defaults. A missing file is
// not an error; the defaults come back as-is. Out-of-range values are
// pulled back to their defaults rather than rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Default(), fmt.Errorf("reading %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save rewrites path atomically, creating parent directories as needed.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// SetPanelWidthCols persists a committed panel resize. The file is
// re-read first so concurrent hand edits to other fields survive.
func SetPanelWidthCols(path string, cols int) (Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if cols < 1 {
		cols = 1
	}
	cfg.Panel.WidthCols = cols
	return cfg, Save(path, cfg)
}

// LogPath resolves the log destination for a config loaded from
// configPath. An empty Log.File lands next to the config file.
func (c Config) LogPath(configPath string) string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(filepath.Dir(configPath), "tabrail.log")
}

func (c *Config) normalize() {
	switch c.Theme {
	case ThemeAuto, ThemeDark, ThemeLight:
	default:
		c.Theme = ThemeAuto
	}
	if c.Panel.WidthCols < 1 {
		c.Panel.WidthCols = defaultWidthCols
	}
}
