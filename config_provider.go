package taskapi

import (
	"fmt"
	"reflect"
)

const mainConfigSection = "_main"

// ConfigProvider defines the interface for providing configuration objects
type ConfigProvider interface {
	// GetConfig returns the configuration object
	GetConfig() any
}

// StdConfigProvider provides a standard implementation of ConfigProvider
type StdConfigProvider struct {
	cfg any
}

// GetConfig returns the configuration object
func (s *StdConfigProvider) GetConfig() any {
	return s.cfg
}

// NewStdConfigProvider creates a new standard configuration provider
func NewStdConfigProvider(cfg any) *StdConfigProvider {
	return &StdConfigProvider{cfg: cfg}
}

// Config combines a set of feeders with the structures they populate.
// The main structure is fed by every feeder; keyed structures are fed only
// by feeders implementing ComplexFeeder, plus any plain feeder (such as the
// env feeder) that populates tagged fields directly.
type Config struct {
	Feeders    []Feeder
	StructKeys map[string]any
}

// NewConfig creates a new configuration builder
func NewConfig() *Config {
	return &Config{
		StructKeys: make(map[string]any),
	}
}

// AddFeeder appends a feeder. Later feeders override earlier ones.
func (c *Config) AddFeeder(f Feeder) *Config {
	c.Feeders = append(c.Feeders, f)
	return c
}

// AddStructKey adds a structure with a key to the configuration
func (c *Config) AddStructKey(key string, target any) *Config {
	c.StructKeys[key] = target
	return c
}

// Feed applies defaults, runs every feeder, then validates each structure.
func (c *Config) Feed() error {
	for key, target := range c.StructKeys {
		if err := ProcessConfigDefaults(target); err != nil {
			return fmt.Errorf("config defaults error for %s: %w", key, err)
		}

		for _, f := range c.Feeders {
			var err error
			if cf, ok := f.(ComplexFeeder); ok && key != mainConfigSection {
				err = cf.FeedKey(key, target)
			} else {
				err = f.Feed(target)
			}
			if err != nil {
				return fmt.Errorf("%w: section %s: %w", ErrConfigFeederError, key, err)
			}
		}

		if err := validateFedConfig(target); err != nil {
			return fmt.Errorf("config validation error for %s: %w", key, err)
		}
	}
	return nil
}

// cloneConfigTarget returns a new zero value of the same pointer type as cfg.
// Reloads feed into fresh structures so a failed reload never leaves a
// half-fed config in place.
func cloneConfigTarget(cfg any) (any, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	t := reflect.TypeOf(cfg)
	if t.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("%w: got %T", ErrConfigNotPointer, cfg)
	}
	return reflect.New(t.Elem()).Interface(), nil
}

// loadAppConfig feeds the main config and every registered section.
// When fresh is true each structure is replaced by a new zero value before
// feeding and the providers are swapped only after every section succeeds.
func loadAppConfig(app *StdApplication, fresh bool) error {
	if app.cfgProvider == nil {
		return ErrConfigProviderNil
	}

	cfg := NewConfig()
	for _, f := range app.feeders {
		cfg.AddFeeder(f)
	}

	targets := make(map[string]any, len(app.cfgSections)+1)
	sections := make(map[string]ConfigProvider, len(app.cfgSections)+1)
	sections[mainConfigSection] = app.cfgProvider
	for name, cp := range app.cfgSections {
		sections[name] = cp
	}

	for name, cp := range sections {
		target := cp.GetConfig()
		if target == nil {
			return fmt.Errorf("%w: %s", ErrConfigNil, name)
		}
		if fresh {
			next, err := cloneConfigTarget(target)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrConfigSectionError, name, err)
			}
			target = next
		}
		targets[name] = target
		cfg.AddStructKey(name, target)
	}

	if err := cfg.Feed(); err != nil {
		return err
	}

	if fresh {
		app.cfgProvider = NewStdConfigProvider(targets[mainConfigSection])
		for name := range app.cfgSections {
			app.cfgSections[name] = NewStdConfigProvider(targets[name])
		}
	}
	return nil
}
