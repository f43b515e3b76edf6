package taskapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// Application represents the core application interface seen by modules.
type Application interface {
	// ConfigProvider retrieves the main (root) config provider.
	ConfigProvider() ConfigProvider
	// RegisterConfigSection registers a configuration section with the application.
	RegisterConfigSection(section string, cp ConfigProvider)
	// GetConfigSection retrieves a configuration section.
	GetConfigSection(section string) (ConfigProvider, error)
	// ConfigSections returns a snapshot of all registered sections.
	ConfigSections() map[string]ConfigProvider
	// RegisterService adds a service to the registry.
	RegisterService(name string, service any) error
	// GetService stores the named service into target, which must be a pointer.
	GetService(name string, target any) error
	// Logger retrieves the application's logger.
	Logger() Logger

	Subject
}

// StdApplication is the default Application implementation.
type StdApplication struct {
	cfgMu       sync.RWMutex
	cfgProvider ConfigProvider
	cfgSections map[string]ConfigProvider
	feeders     []Feeder

	svcMu       sync.RWMutex
	svcRegistry ServiceRegistry

	moduleRegistry map[string]Module
	moduleOrder    []string // registration order, used to break ties
	initOrder      []string
	initialized    bool

	logger Logger
	ctx    context.Context
	cancel context.CancelFunc

	observerMu sync.RWMutex
	observers  map[string]*observerRegistration

	// StopTimeout bounds the total time spent in Stop.
	StopTimeout time.Duration
}

// NewApplication creates a new application configured by opts.
// Without WithLogger, the application logs to stdout with slog's text handler.
func NewApplication(opts ...ApplicationOption) (*StdApplication, error) {
	app := &StdApplication{
		cfgSections:    make(map[string]ConfigProvider),
		feeders:        append([]Feeder(nil), ConfigFeeders...),
		svcRegistry:    make(ServiceRegistry),
		moduleRegistry: make(map[string]Module),
		observers:      make(map[string]*observerRegistration),
		StopTimeout:    30 * time.Second,
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("failed to apply application option: %w", err)
		}
	}

	if app.logger == nil {
		app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{}))
	}
	if app.cfgProvider == nil {
		app.cfgProvider = NewStdConfigProvider(&struct{}{})
	}

	return app, nil
}

// ConfigProvider retrieves the application config provider
func (app *StdApplication) ConfigProvider() ConfigProvider {
	app.cfgMu.RLock()
	defer app.cfgMu.RUnlock()
	return app.cfgProvider
}

// RegisterConfigSection registers a configuration section with the application
func (app *StdApplication) RegisterConfigSection(section string, cp ConfigProvider) {
	app.cfgMu.Lock()
	defer app.cfgMu.Unlock()
	app.cfgSections[section] = cp
}

// ConfigSections retrieves all registered configuration sections
func (app *StdApplication) ConfigSections() map[string]ConfigProvider {
	app.cfgMu.RLock()
	defer app.cfgMu.RUnlock()
	out := make(map[string]ConfigProvider, len(app.cfgSections))
	for k, v := range app.cfgSections {
		out[k] = v
	}
	return out
}

// GetConfigSection retrieves a configuration section
func (app *StdApplication) GetConfigSection(section string) (ConfigProvider, error) {
	app.cfgMu.RLock()
	defer app.cfgMu.RUnlock()
	cp, exists := app.cfgSections[section]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrConfigSectionNotFound, section)
	}
	return cp, nil
}

// RegisterService adds a service with type checking
func (app *StdApplication) RegisterService(name string, service any) error {
	app.svcMu.Lock()
	defer app.svcMu.Unlock()
	if _, exists := app.svcRegistry[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}
	app.svcRegistry[name] = service
	app.logger.Debug("Registered service", "name", name, "type", fmt.Sprintf("%T", service))
	return nil
}

// GetService retrieves a service with type assertion
func (app *StdApplication) GetService(name string, target any) error {
	app.svcMu.RLock()
	service, exists := app.svcRegistry[name]
	app.svcMu.RUnlock()
	if !exists {
		return fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return assignService(name, service, target)
}

// Logger represents a logger
func (app *StdApplication) Logger() Logger {
	return app.logger
}

// RegisterModule adds a module to the application. It panics on a duplicate
// name, which is always a programming error; WithModules returns the error instead.
func (app *StdApplication) RegisterModule(module Module) {
	if err := app.registerModule(module); err != nil {
		panic(err)
	}
}

func (app *StdApplication) registerModule(module Module) error {
	name := module.Name()
	if _, exists := app.moduleRegistry[name]; exists {
		return fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, name)
	}
	app.moduleRegistry[name] = module
	app.moduleOrder = append(app.moduleOrder, name)
	return nil
}

// Init registers module configs, feeds every section, then initializes
// modules in dependency order.
func (app *StdApplication) Init() error {
	for _, name := range app.moduleOrder {
		if cfgMod, ok := app.moduleRegistry[name].(Configurable); ok {
			if err := cfgMod.RegisterConfig(app); err != nil {
				return fmt.Errorf("module %s failed to register config: %w", name, err)
			}
		}
	}

	app.cfgMu.Lock()
	err := loadAppConfig(app, false)
	app.cfgMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to load app config: %w", err)
	}
	app.emitEvent(context.Background(), EventTypeConfigLoaded, nil)

	order, err := app.resolveDependencies()
	if err != nil {
		return err
	}

	for _, name := range order {
		module := app.moduleRegistry[name]
		if err := module.Init(app); err != nil {
			return fmt.Errorf("module '%s' failed to initialize: %w", name, err)
		}

		if svcAware, ok := module.(ServiceAware); ok {
			for _, svc := range svcAware.ProvidesServices() {
				if err := app.RegisterService(svc.Name, svc.Instance); err != nil {
					return fmt.Errorf("module '%s' failed to register service '%s': %w", name, svc.Name, err)
				}
			}
		}

		app.logger.Info("Initialized module", "module", name)
		app.emitEvent(context.Background(), EventTypeModuleInitialized, map[string]any{"module": name})
	}

	for _, name := range order {
		if obs, ok := app.moduleRegistry[name].(ObservableModule); ok {
			if err := obs.RegisterObservers(app); err != nil {
				return fmt.Errorf("module '%s' failed to register observers: %w", name, err)
			}
		}
	}

	app.initOrder = order
	app.initialized = true
	return nil
}

// Start starts every Startable module in initialization order.
func (app *StdApplication) Start() error {
	if !app.initialized {
		return ErrApplicationNotInitialized
	}

	app.ctx, app.cancel = context.WithCancel(context.Background())

	for _, name := range app.initOrder {
		startable, ok := app.moduleRegistry[name].(Startable)
		if !ok {
			continue
		}
		app.logger.Info("Starting module", "module", name)
		if err := startable.Start(app.ctx); err != nil {
			return fmt.Errorf("failed to start module %s: %w", name, err)
		}
		app.emitEvent(app.ctx, EventTypeModuleStarted, map[string]any{"module": name})
	}

	app.emitEvent(app.ctx, EventTypeApplicationStarted, nil)
	return nil
}

// Stop stops every Stoppable module in reverse initialization order.
// All modules are given a chance to stop; errors are joined.
func (app *StdApplication) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.StopTimeout)
	defer cancel()

	var errs []error
	for i := len(app.initOrder) - 1; i >= 0; i-- {
		name := app.initOrder[i]
		stoppable, ok := app.moduleRegistry[name].(Stoppable)
		if !ok {
			continue
		}
		app.logger.Info("Stopping module", "module", name)
		if err := stoppable.Stop(ctx); err != nil {
			app.logger.Error("Error stopping module", "module", name, "error", err)
			errs = append(errs, fmt.Errorf("module %s: %w", name, err))
			continue
		}
		app.emitEvent(ctx, EventTypeModuleStopped, map[string]any{"module": name})
	}

	if app.cancel != nil {
		app.cancel()
	}

	app.emitEvent(ctx, EventTypeApplicationStopped, nil)
	return errors.Join(errs...)
}

// Run initializes, starts, waits for SIGINT/SIGTERM, then stops.
func (app *StdApplication) Run() error {
	if err := app.Init(); err != nil {
		return err
	}

	if err := app.Start(); err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	app.logger.Info("Received signal, shutting down", "signal", sig)

	return app.Stop()
}

// ReloadConfig re-feeds every config section into fresh structures. On
// success the providers are swapped, Reloadable modules are notified and a
// config changed event is emitted. On failure the previous config stays live.
func (app *StdApplication) ReloadConfig(ctx context.Context) error {
	app.cfgMu.Lock()
	oldMain := app.cfgProvider.GetConfig()
	err := loadAppConfig(app, true)
	newMain := app.cfgProvider.GetConfig()
	app.cfgMu.Unlock()
	if err != nil {
		return fmt.Errorf("config reload failed: %w", err)
	}

	dynamic, static := ChangedFields(oldMain, newMain)
	if len(static) > 0 {
		app.logger.Warn("Config fields changed that require a restart", "fields", static)
	}

	var errs []error
	for _, name := range app.initOrder {
		if r, ok := app.moduleRegistry[name].(Reloadable); ok {
			if err := r.Reload(ctx, app); err != nil {
				errs = append(errs, fmt.Errorf("module %s: %w", name, err))
			}
		}
	}

	app.emitEvent(ctx, EventTypeConfigChanged, map[string]any{"dynamic": dynamic, "static": static})
	app.logger.Info("Configuration reloaded", "dynamicFields", dynamic)
	return errors.Join(errs...)
}

// resolveDependencies returns module names in an order where every module
// follows its dependencies. Ties are broken by registration order.
func (app *StdApplication) resolveDependencies() ([]string, error) {
	position := make(map[string]int, len(app.moduleOrder))
	for i, name := range app.moduleOrder {
		position[name] = i
	}

	indegree := make(map[string]int, len(app.moduleOrder))
	dependents := make(map[string][]string)
	for _, name := range app.moduleOrder {
		depAware, ok := app.moduleRegistry[name].(DependencyAware)
		if !ok {
			continue
		}
		for _, dep := range depAware.Dependencies() {
			if _, exists := app.moduleRegistry[dep]; !exists {
				return nil, fmt.Errorf("%w: '%s' depends on '%s'", ErrModuleDependencyMissing, name, dep)
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for _, name := range app.moduleOrder {
		if indegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(app.moduleOrder))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(app.moduleOrder) {
		var cycle []string
		for _, name := range app.moduleOrder {
			if indegree[name] > 0 {
				cycle = append(cycle, name)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrCircularDependency, cycle)
	}

	return order, nil
}
