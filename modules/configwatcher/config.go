package configwatcher

import (
	"fmt"
	"time"
)

// ConfigWatcherConfig configures which files trigger a reload.
type ConfigWatcherConfig struct {
	Enabled  bool          `yaml:"enabled" toml:"enabled" default:"true" desc:"Reload configuration when watched files change" env:"CONFIGWATCHER_ENABLED"`
	Paths    []string      `yaml:"paths" toml:"paths" default:"[\"config.yaml\",\"config.toml\",\".env\"]" desc:"Config files to watch" env:"CONFIGWATCHER_PATHS"`
	Debounce time.Duration `yaml:"debounce" toml:"debounce" default:"500ms" desc:"Quiet period before a reload is triggered" env:"CONFIGWATCHER_DEBOUNCE"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *ConfigWatcherConfig) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("%w: debounce %s", ErrInvalidConfig, c.Debounce)
	}
	if c.Enabled && len(c.Paths) == 0 {
		return fmt.Errorf("%w: no paths to watch", ErrInvalidConfig)
	}
	return nil
}
