package cmd

import (
	"fmt"
	"log/slog"
)

// AppConfig is the root configuration section.
type AppConfig struct {
	AppName     string `yaml:"app_name" toml:"app_name" default:"Task API" desc:"Application name" env:"APP_NAME"`
	Environment string `yaml:"environment" toml:"environment" default:"development" desc:"Deployment environment" env:"APP_ENV"`
	LogLevel    string `yaml:"log_level" toml:"log_level" default:"info" desc:"Log level (debug, info, warn, error)" env:"LOG_LEVEL" dynamic:"true"`
	// APIKey is loaded for deployments that expect it but no request checks it.
	APIKey string `yaml:"api_key" toml:"api_key" desc:"API key, loaded but not enforced" env:"LAB4_API_KEY"`
}

// Validate implements the taskapi.ConfigValidator interface.
func (c *AppConfig) Validate() error {
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}
