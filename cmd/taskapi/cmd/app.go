package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/lab4/taskapi"
	"github.com/lab4/taskapi/feeders"
	"github.com/lab4/taskapi/modules/chimux"
	"github.com/lab4/taskapi/modules/configwatcher"
	"github.com/lab4/taskapi/modules/eventlogger"
	"github.com/lab4/taskapi/modules/httpserver"
	"github.com/lab4/taskapi/modules/jsonschema"
	"github.com/lab4/taskapi/modules/logmasker"
	"github.com/lab4/taskapi/modules/scheduler"
	"github.com/lab4/taskapi/modules/tasks"
)

// defaultConfigFiles are tried in order when no --config is given.
var defaultConfigFiles = []string{"config.yaml", "config.yml", "config.toml"}

// Options are the command line settings shared by the commands.
type Options struct {
	ConfigFile string
	EnvFile    string
	LogFormat  string
}

// newModules returns the modules of the task API in registration order.
func newModules() []taskapi.Module {
	return []taskapi.Module{
		logmasker.NewModule(),
		chimux.NewChiMuxModule(),
		jsonschema.NewModule(),
		scheduler.NewModule(),
		eventlogger.NewModule(),
		tasks.NewModule(),
		httpserver.NewHTTPServerModule(),
		configwatcher.NewModule(),
	}
}

// newLogger creates the application logger. The returned LevelVar controls
// its level at runtime.
func newLogger(format string, out io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	level := new(slog.LevelVar)
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(out, opts)), level, nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, opts)), level, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrInvalidLogFormat, format)
	}
}

// configFeeders returns the feeders in precedence order: config file, then
// the .env file, then the process environment.
func configFeeders(opts Options) ([]taskapi.Feeder, error) {
	var result []taskapi.Feeder

	path := opts.ConfigFile
	if path == "" {
		for _, candidate := range defaultConfigFiles {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			result = append(result, feeders.NewYamlFeeder(path))
		case ".toml":
			result = append(result, feeders.NewTomlFeeder(path))
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, path)
		}
	}

	if opts.EnvFile != "" {
		result = append(result, feeders.NewDotEnvFeeder(opts.EnvFile))
	}
	return append(result, feeders.NewEnvFeeder()), nil
}

// buildApplication assembles the application with every module registered.
func buildApplication(opts Options, logger taskapi.Logger) (*taskapi.StdApplication, error) {
	feederList, err := configFeeders(opts)
	if err != nil {
		return nil, err
	}

	return taskapi.NewApplication(
		taskapi.WithLogger(logger),
		taskapi.WithConfigProvider(taskapi.NewStdConfigProvider(&AppConfig{})),
		taskapi.WithConfigFeeders(feederList...),
		taskapi.WithModules(newModules()...),
	)
}

// applyLogLevel sets level from the root config.
func applyLogLevel(app taskapi.Application, level *slog.LevelVar) error {
	cfg := app.ConfigProvider().GetConfig().(*AppConfig)
	parsed, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	level.Set(parsed)
	return nil
}

// watchLogLevel keeps level in sync with log_level across config reloads.
func watchLogLevel(app *taskapi.StdApplication, level *slog.LevelVar) error {
	observer := taskapi.NewFunctionalObserver("cmd.loglevel", func(context.Context, cloudevents.Event) error {
		if err := applyLogLevel(app, level); err != nil {
			return err
		}
		app.Logger().Info("Log level applied", "level", level.Level().String())
		return nil
	})
	return app.RegisterObserver(observer, taskapi.EventTypeConfigChanged)
}

// logStartup reports the loaded root config through the masking logger.
func logStartup(app *taskapi.StdApplication) {
	cfg := app.ConfigProvider().GetConfig().(*AppConfig)

	var logger taskapi.Logger
	if err := app.GetService(logmasker.ServiceName, &logger); err != nil {
		logger = app.Logger()
	}
	logger.Info("Configuration loaded",
		"app", cfg.AppName,
		"environment", cfg.Environment,
		"logLevel", cfg.LogLevel,
		"apiKey", cfg.APIKey,
	)
	if cfg.APIKey == "" {
		logger.Warn("LAB4_API_KEY is not set")
	}
}

// serve runs the application until ctx is cancelled.
func serve(ctx context.Context, opts Options, out io.Writer) error {
	logger, level, err := newLogger(opts.LogFormat, out)
	if err != nil {
		return err
	}

	app, err := buildApplication(opts, logger)
	if err != nil {
		return err
	}
	if err := app.Init(); err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	if err := applyLogLevel(app, level); err != nil {
		return err
	}
	if err := watchLogLevel(app, level); err != nil {
		return err
	}
	logStartup(app)

	if err := app.Start(); err != nil {
		stopErr := app.Stop()
		return errors.Join(fmt.Errorf("failed to start application: %w", err), stopErr)
	}

	<-ctx.Done()
	logger.Info("Shutting down")
	return app.Stop()
}

// sampleSections collects every module's config section with defaults.
func sampleSections() (map[string]any, error) {
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigFeeders(),
	)
	if err != nil {
		return nil, err
	}

	for _, module := range newModules() {
		if cfgMod, ok := module.(taskapi.Configurable); ok {
			if err := cfgMod.RegisterConfig(app); err != nil {
				return nil, fmt.Errorf("module %s: %w", module.Name(), err)
			}
		}
	}

	sections := make(map[string]any)
	for name, cp := range app.ConfigSections() {
		sections[name] = cp.GetConfig()
	}
	return sections, nil
}
