// Package configwatcher reloads the application configuration when a watched
// config file changes on disk.
//
// The parent directory of each path is watched so that editors which replace
// the file with a rename are still detected. Bursts of writes are collapsed
// into one reload after the debounce period. Only fields tagged dynamic take
// effect without a restart; see taskapi.StdApplication.ReloadConfig.
package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/lab4/taskapi"
)

// ModuleName is the unique identifier for the configwatcher module.
const ModuleName = "configwatcher"

// Reloader is implemented by applications that can re-feed their config.
type Reloader interface {
	ReloadConfig(ctx context.Context) error
}

// ConfigWatcherModule watches config files and triggers reloads.
type ConfigWatcherModule struct {
	config   *ConfigWatcherConfig
	logger   taskapi.Logger
	reloader Reloader
	subject  taskapi.Subject

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	files   map[string]struct{}
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewModule creates a new configwatcher module.
func NewModule() *ConfigWatcherModule {
	return &ConfigWatcherModule{}
}

// Name returns the unique identifier for this module.
func (m *ConfigWatcherModule) Name() string {
	return ModuleName
}

// RegisterConfig registers the module's configuration structure.
func (m *ConfigWatcherModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(ModuleName, taskapi.NewStdConfigProvider(&ConfigWatcherConfig{}))
	return nil
}

// Init resolves the config section and checks that the application can reload.
func (m *ConfigWatcherModule) Init(app taskapi.Application) error {
	cfg, err := app.GetConfigSection(ModuleName)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", ModuleName, err)
	}
	m.config = cfg.GetConfig().(*ConfigWatcherConfig)
	m.logger = app.Logger()

	reloader, ok := app.(Reloader)
	if !ok {
		return ErrReloadUnsupported
	}
	m.reloader = reloader
	return nil
}

// Start begins watching. Paths whose directory does not exist are skipped
// with a warning.
func (m *ConfigWatcherModule) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.config.Enabled || m.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	files := make(map[string]struct{}, len(m.config.Paths))
	dirs := make(map[string]struct{})
	for _, p := range m.config.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to resolve path %s: %w", p, err)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watched := 0
	for dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			m.logger.Warn("Config directory not found, not watching", "dir", dir)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched++
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.watcher = watcher
	m.files = files
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(loopCtx, watcher, m.done)

	m.logger.Info("Config watcher started", "paths", m.config.Paths, "dirs", watched, "debounce", m.config.Debounce)
	return nil
}

// Stop closes the watcher and waits for the event loop to exit.
func (m *ConfigWatcherModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	watcher, cancel, done := m.watcher, m.cancel, m.done
	m.watcher = nil
	m.mu.Unlock()

	if watcher == nil {
		return nil
	}

	cancel()
	err := watcher.Close()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	m.logger.Info("Config watcher stopped")
	return nil
}

func (m *ConfigWatcherModule) loop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !m.relevant(event) {
				continue
			}
			m.logger.Debug("Config file changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(m.config.Debounce)
			} else {
				timer.Reset(m.config.Debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.Error("Config watcher error", "error", err)
		case <-fire:
			fire = nil
			m.reload(ctx)
		}
	}
}

func (m *ConfigWatcherModule) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := m.files[abs]
	return ok
}

func (m *ConfigWatcherModule) reload(ctx context.Context) {
	m.emitEvent(ctx, EventTypeReloadTriggered, nil)
	if err := m.reloader.ReloadConfig(ctx); err != nil {
		m.logger.Error("Config reload failed, keeping previous configuration", "error", err)
		m.emitEvent(ctx, EventTypeReloadFailed, map[string]any{"error": err.Error()})
	}
}

// RegisterObservers implements the ObservableModule interface.
func (m *ConfigWatcherModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *ConfigWatcherModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return taskapi.ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

func (m *ConfigWatcherModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	event := taskapi.NewCloudEvent(eventType, "configwatcher", data, nil)
	if err := m.EmitEvent(ctx, event); err != nil {
		taskapi.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
