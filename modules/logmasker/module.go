// Package logmasker provides a logger decorator that redacts sensitive
// values such as API keys before they reach the log output.
//
// Other modules and the command line look the masking logger up by
// ServiceName and log through it:
//
//	var logger taskapi.Logger
//	_ = app.GetService(logmasker.ServiceName, &logger)
//	logger.Info("Configuration loaded", "apiKey", cfg.APIKey)
//	// apiKey=ab**********
//
// Rules match either an exact log key (field_rules) or the value itself
// (pattern_rules). Values implementing MaskableValue decide for themselves.
package logmasker

import (
	"fmt"

	"github.com/lab4/taskapi"
)

const (
	// ServiceName is the name of the masking logger service.
	ServiceName = "logmasker.logger"

	// ModuleName is the name of the log masker module.
	ModuleName = "logmasker"
)

// LogMaskerModule publishes a MaskingLogger wrapping the application logger.
type LogMaskerModule struct {
	config *LogMaskerConfig
	logger *MaskingLogger
}

// NewModule creates a new log masker module instance.
func NewModule() *LogMaskerModule {
	return &LogMaskerModule{}
}

// Name returns the module name.
func (m *LogMaskerModule) Name() string {
	return ModuleName
}

// RegisterConfig registers the module's configuration.
func (m *LogMaskerModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(ModuleName, taskapi.NewStdConfigProvider(&LogMaskerConfig{}))
	return nil
}

// Init builds the masking logger around the application logger.
func (m *LogMaskerModule) Init(app taskapi.Application) error {
	cp, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get log masker config: %w", err)
	}
	m.config = cp.GetConfig().(*LogMaskerConfig)

	m.logger, err = NewMaskingLogger(app.Logger(), m.config)
	if err != nil {
		return err
	}

	app.Logger().Debug("Log masker initialized", "fieldRules", len(m.config.FieldRules), "patternRules", len(m.config.PatternRules))
	return nil
}

// Logger returns the masking logger.
func (m *LogMaskerModule) Logger() *MaskingLogger {
	return m.logger
}

// ProvidesServices declares what services this module provides.
func (m *LogMaskerModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "Logger that masks sensitive values",
			Instance:    taskapi.Logger(m.logger),
		},
	}
}
