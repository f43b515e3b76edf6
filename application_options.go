package taskapi

// ApplicationOption represents a configuration option for the application
type ApplicationOption func(*StdApplication) error

// WithLogger sets the application logger.
func WithLogger(logger Logger) ApplicationOption {
	return func(app *StdApplication) error {
		app.logger = logger
		return nil
	}
}

// WithConfigProvider sets the provider for the main (root) config section.
func WithConfigProvider(cp ConfigProvider) ApplicationOption {
	return func(app *StdApplication) error {
		app.cfgProvider = cp
		return nil
	}
}

// WithConfigFeeders replaces the default ConfigFeeders for this application.
// Feeders run in order, so later feeders override earlier ones.
func WithConfigFeeders(feeders ...Feeder) ApplicationOption {
	return func(app *StdApplication) error {
		app.feeders = append([]Feeder(nil), feeders...)
		return nil
	}
}

// WithModules registers modules in the given order.
func WithModules(modules ...Module) ApplicationOption {
	return func(app *StdApplication) error {
		for _, m := range modules {
			if err := app.registerModule(m); err != nil {
				return err
			}
		}
		return nil
	}
}
