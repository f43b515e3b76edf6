package configwatcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi"
	"github.com/lab4/taskapi/feeders"
)

type appConfig struct {
	LogLevel string `yaml:"log_level" default:"info" dynamic:"true"`
}

func writeConfig(t *testing.T, path, level string) {
	t.Helper()
	content := fmt.Sprintf("log_level: %s\nconfigwatcher:\n  paths:\n    - %s\n  debounce: 50ms\n", level, path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTestApp(t *testing.T, path string) (*taskapi.StdApplication, *ConfigWatcherModule) {
	t.Helper()
	module := NewModule()
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigProvider(taskapi.NewStdConfigProvider(&appConfig{})),
		taskapi.WithConfigFeeders(feeders.NewYamlFeeder(path)),
		taskapi.WithModules(module),
	)
	require.NoError(t, err)
	return app, module
}

func TestConfigWatcherConfigDefaults(t *testing.T) {
	cfg := &ConfigWatcherConfig{}
	require.NoError(t, taskapi.ProcessConfigDefaults(cfg))
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"config.yaml", "config.toml", ".env"}, cfg.Paths)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)

	cfg.Debounce = -time.Second
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = &ConfigWatcherConfig{Enabled: true}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "info")

	app, _ := newTestApp(t, path)
	require.NoError(t, app.Init())

	changed := make(chan cloudevents.Event, 4)
	require.NoError(t, app.RegisterObserver(taskapi.NewFunctionalObserver("watch-test", func(_ context.Context, e cloudevents.Event) error {
		changed <- e
		return nil
	}), taskapi.EventTypeConfigChanged))

	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	writeConfig(t, path, "debug")

	select {
	case e := <-changed:
		var data map[string][]string
		require.NoError(t, e.DataAs(&data))
		assert.Equal(t, []string{"LogLevel"}, data["dynamic"])
	case <-time.After(3 * time.Second):
		t.Fatal("expected config changed event")
	}
	assert.Equal(t, "debug", app.ConfigProvider().GetConfig().(*appConfig).LogLevel)
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "info")

	app, _ := newTestApp(t, path)
	require.NoError(t, app.Init())

	triggered := make(chan cloudevents.Event, 1)
	require.NoError(t, app.RegisterObserver(taskapi.NewFunctionalObserver("watch-test", func(_ context.Context, e cloudevents.Event) error {
		triggered <- e
		return nil
	}), EventTypeReloadTriggered))

	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case <-triggered:
		t.Fatal("unexpected reload for an unwatched file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcherFailedReloadKeepsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "info")

	app, _ := newTestApp(t, path)
	require.NoError(t, app.Init())

	failed := make(chan cloudevents.Event, 1)
	require.NoError(t, app.RegisterObserver(taskapi.NewFunctionalObserver("watch-test", func(_ context.Context, e cloudevents.Event) error {
		failed <- e
		return nil
	}), EventTypeReloadFailed))

	require.NoError(t, app.Start())
	t.Cleanup(func() { _ = app.Stop() })

	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated\n"), 0o600))

	select {
	case <-failed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload failed event")
	}
	assert.Equal(t, "info", app.ConfigProvider().GetConfig().(*appConfig).LogLevel)
}

func TestConfigWatcherDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("configwatcher:\n  enabled: false\n"), 0o600))

	app, module := newTestApp(t, path)
	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	assert.Nil(t, module.watcher)
	require.NoError(t, app.Stop())
}

type noReloadApp struct {
	taskapi.Application
}

func TestConfigWatcherRequiresReloader(t *testing.T) {
	app, err := taskapi.NewApplication(taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), taskapi.WithConfigFeeders())
	require.NoError(t, err)

	module := NewModule()
	require.NoError(t, module.RegisterConfig(app))
	assert.ErrorIs(t, module.Init(noReloadApp{Application: app}), ErrReloadUnsupported)
}
