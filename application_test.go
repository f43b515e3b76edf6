package taskapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi/feeders"
)

func testLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects lifecycle calls across modules in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type testModule struct {
	name     string
	deps     []string
	rec      *recorder
	initErr  error
	provides []ServiceProvider
}

func (m *testModule) Name() string           { return m.name }
func (m *testModule) Dependencies() []string { return m.deps }

func (m *testModule) Init(Application) error {
	m.rec.add("init:" + m.name)
	return m.initErr
}

func (m *testModule) Start(context.Context) error {
	m.rec.add("start:" + m.name)
	return nil
}

func (m *testModule) Stop(context.Context) error {
	m.rec.add("stop:" + m.name)
	return nil
}

func (m *testModule) ProvidesServices() []ServiceProvider { return m.provides }

func TestApplication_LifecycleOrder(t *testing.T) {
	rec := &recorder{}
	app, err := NewApplication(
		WithLogger(testLogger()),
		WithConfigFeeders(),
		WithModules(
			&testModule{name: "tasks", deps: []string{"router"}, rec: rec},
			&testModule{name: "server", deps: []string{"router"}, rec: rec},
			&testModule{name: "router", rec: rec},
		),
	)
	require.NoError(t, err)

	require.NoError(t, app.Init())
	require.NoError(t, app.Start())
	require.NoError(t, app.Stop())

	assert.Equal(t, []string{
		"init:router", "init:tasks", "init:server",
		"start:router", "start:tasks", "start:server",
		"stop:server", "stop:tasks", "stop:router",
	}, rec.snapshot())
}

func TestApplication_DependencyErrors(t *testing.T) {
	t.Run("missing dependency", func(t *testing.T) {
		rec := &recorder{}
		app, err := NewApplication(WithLogger(testLogger()), WithConfigFeeders(),
			WithModules(&testModule{name: "tasks", deps: []string{"router"}, rec: rec}))
		require.NoError(t, err)

		err = app.Init()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrModuleDependencyMissing)
		assert.Empty(t, rec.snapshot())
	})

	t.Run("circular dependency", func(t *testing.T) {
		rec := &recorder{}
		app, err := NewApplication(WithLogger(testLogger()), WithConfigFeeders(),
			WithModules(
				&testModule{name: "a", deps: []string{"b"}, rec: rec},
				&testModule{name: "b", deps: []string{"a"}, rec: rec},
			))
		require.NoError(t, err)

		err = app.Init()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCircularDependency)
	})

	t.Run("duplicate module", func(t *testing.T) {
		rec := &recorder{}
		_, err := NewApplication(WithModules(
			&testModule{name: "a", rec: rec},
			&testModule{name: "a", rec: rec},
		))
		assert.ErrorIs(t, err, ErrModuleAlreadyRegistered)
	})

	t.Run("init failure", func(t *testing.T) {
		errBoom := errors.New("boom")
		app, err := NewApplication(WithLogger(testLogger()), WithConfigFeeders(),
			WithModules(&testModule{name: "a", rec: &recorder{}, initErr: errBoom}))
		require.NoError(t, err)
		assert.ErrorIs(t, app.Init(), errBoom)
	})

	t.Run("start before init", func(t *testing.T) {
		app, err := NewApplication(WithLogger(testLogger()))
		require.NoError(t, err)
		assert.ErrorIs(t, app.Start(), ErrApplicationNotInitialized)
	})
}

type greeter interface{ Greet() string }

type englishGreeter struct{}

func (englishGreeter) Greet() string { return "hello" }

func TestApplication_Services(t *testing.T) {
	rec := &recorder{}
	app, err := NewApplication(WithLogger(testLogger()), WithConfigFeeders(),
		WithModules(&testModule{
			name: "greeter",
			rec:  rec,
			provides: []ServiceProvider{{
				Name:     "greeter",
				Instance: englishGreeter{},
			}},
		}))
	require.NoError(t, err)
	require.NoError(t, app.Init())

	var g greeter
	require.NoError(t, app.GetService("greeter", &g))
	assert.Equal(t, "hello", g.Greet())

	var concrete englishGreeter
	assert.NoError(t, app.GetService("greeter", &concrete))

	var wrong *testing.T
	assert.ErrorIs(t, app.GetService("greeter", &wrong), ErrServiceIncompatible)
	assert.ErrorIs(t, app.GetService("greeter", g), ErrTargetNotPointer)
	assert.ErrorIs(t, app.GetService("missing", &g), ErrServiceNotFound)
	assert.ErrorIs(t, app.RegisterService("greeter", englishGreeter{}), ErrServiceAlreadyRegistered)
}

type serverSection struct {
	Host string `yaml:"host" default:"localhost"`
	Port int    `yaml:"port" required:"true"`
}

type rootSection struct {
	Name     string `yaml:"name" default:"demo"`
	LogLevel string `yaml:"log_level" default:"info" dynamic:"true"`
}

type sectionModule struct {
	cfg *serverSection
}

func (m *sectionModule) Name() string { return "server" }

func (m *sectionModule) RegisterConfig(app Application) error {
	m.cfg = &serverSection{}
	app.RegisterConfigSection("server", NewStdConfigProvider(m.cfg))
	return nil
}

func (m *sectionModule) Init(app Application) error {
	cp, err := app.GetConfigSection("server")
	if err != nil {
		return err
	}
	m.cfg = cp.GetConfig().(*serverSection)
	return nil
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestApplication_ConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "name: tasks\nserver:\n  port: 8080\n")

	mod := &sectionModule{}
	app, err := NewApplication(
		WithLogger(testLogger()),
		WithConfigProvider(NewStdConfigProvider(&rootSection{})),
		WithConfigFeeders(feeders.NewYamlFeeder(path)),
		WithModules(mod),
	)
	require.NoError(t, err)
	require.NoError(t, app.Init())

	root := app.ConfigProvider().GetConfig().(*rootSection)
	assert.Equal(t, "tasks", root.Name)
	assert.Equal(t, "info", root.LogLevel)
	assert.Equal(t, "localhost", mod.cfg.Host)
	assert.Equal(t, 8080, mod.cfg.Port)

	_, err = app.GetConfigSection("unknown")
	assert.ErrorIs(t, err, ErrConfigSectionNotFound)
}

func TestApplication_RequiredSectionField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "name: tasks\n")

	app, err := NewApplication(
		WithLogger(testLogger()),
		WithConfigFeeders(feeders.NewYamlFeeder(path)),
		WithModules(&sectionModule{}),
	)
	require.NoError(t, err)
	assert.ErrorIs(t, app.Init(), ErrConfigRequiredFieldMissing)
}

func TestApplication_ReloadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "log_level: info\nserver:\n  port: 8080\n")

	app, err := NewApplication(
		WithLogger(testLogger()),
		WithConfigProvider(NewStdConfigProvider(&rootSection{})),
		WithConfigFeeders(feeders.NewYamlFeeder(path)),
		WithModules(&sectionModule{}),
	)
	require.NoError(t, err)
	require.NoError(t, app.Init())

	changed := make(chan cloudevents.Event, 1)
	require.NoError(t, app.RegisterObserver(NewFunctionalObserver("reload-test", func(_ context.Context, e cloudevents.Event) error {
		changed <- e
		return nil
	}), EventTypeConfigChanged))

	writeConfig(t, path, "log_level: debug\nserver:\n  port: 9090\n")
	require.NoError(t, app.ReloadConfig(context.Background()))

	assert.Equal(t, "debug", app.ConfigProvider().GetConfig().(*rootSection).LogLevel)
	cp, err := app.GetConfigSection("server")
	require.NoError(t, err)
	assert.Equal(t, 9090, cp.GetConfig().(*serverSection).Port)

	select {
	case e := <-changed:
		var data map[string][]string
		require.NoError(t, e.DataAs(&data))
		assert.Equal(t, []string{"LogLevel"}, data["dynamic"])
	case <-time.After(time.Second):
		t.Fatal("expected config changed event")
	}

	t.Run("failed reload keeps previous config", func(t *testing.T) {
		writeConfig(t, path, "log_level: warn\nserver:\n  host: example\n")
		assert.Error(t, app.ReloadConfig(context.Background()))
		assert.Equal(t, "debug", app.ConfigProvider().GetConfig().(*rootSection).LogLevel)
	})
}
