// Package taskapi is a small modular application kernel hosting the task API.
//
// An application is composed of modules. Each module implements Module and may
// implement Configurable, DependencyAware, Startable, Stoppable, Reloadable or
// ObservableModule. The application registers config sections, feeds them,
// initializes modules in dependency order, starts them, and stops them in
// reverse order on SIGINT/SIGTERM.
//
// Basic usage:
//
//	app := taskapi.NewApplication(
//		taskapi.WithLogger(logger),
//		taskapi.WithConfigProvider(taskapi.NewStdConfigProvider(&AppConfig{})),
//		taskapi.WithModules(chimux.NewChiMuxModule(), tasks.NewModule()),
//	)
//	if err := app.Run(); err != nil {
//		log.Fatal(err)
//	}
package taskapi

import "context"

// Module represents a registrable component in the application.
type Module interface {
	// Name returns the unique identifier for this module.
	// It is used for dependency resolution and config section lookups.
	Name() string

	// Init initializes the module. Modules are initialized in dependency order,
	// after every config section has been fed and validated.
	Init(app Application) error
}

// Configurable is implemented by modules that own a config section.
// RegisterConfig is called before any config is loaded.
type Configurable interface {
	RegisterConfig(app Application) error
}

// DependencyAware is implemented by modules that must be initialized after
// other modules. Names must match Module.Name exactly.
type DependencyAware interface {
	Dependencies() []string
}

// Startable is implemented by modules with background work.
type Startable interface {
	Start(ctx context.Context) error
}

// Stoppable is implemented by modules that must release resources.
// Stop is called in reverse initialization order.
type Stoppable interface {
	Stop(ctx context.Context) error
}

// Reloadable is implemented by modules that can apply a new configuration
// without a restart. Reload is called after every config section has been
// re-fed successfully.
type Reloadable interface {
	Reload(ctx context.Context, app Application) error
}
