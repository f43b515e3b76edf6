// Package httpserver provides the HTTP listener for the task API.
//
// The module binds the configured address during Start, serves the "router"
// service (any http.Handler) on it, and drains in-flight requests on Stop
// within the configured shutdown timeout.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/lab4/taskapi"
)

// ModuleName is the name of this module
const ModuleName = "httpserver"

// HTTPServerModule represents the HTTP server module
type HTTPServerModule struct {
	config  *HTTPServerConfig
	server  *http.Server
	logger  taskapi.Logger
	handler http.Handler
	subject taskapi.Subject

	mu       sync.Mutex
	listener net.Listener
	started  bool
	done     chan struct{}
}

var _ taskapi.Module = (*HTTPServerModule)(nil)

// NewHTTPServerModule creates a new instance of the HTTP server module
func NewHTTPServerModule() *HTTPServerModule {
	return &HTTPServerModule{}
}

// Name returns the name of the module
func (m *HTTPServerModule) Name() string {
	return ModuleName
}

// Dependencies declares the router module; its "router" service must exist
// before Init runs.
func (m *HTTPServerModule) Dependencies() []string {
	return []string{"chimux"}
}

// RegisterConfig registers the module's configuration structure
func (m *HTTPServerModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(m.Name(), taskapi.NewStdConfigProvider(&HTTPServerConfig{}))
	return nil
}

// Init loads the config and resolves the router handler.
func (m *HTTPServerModule) Init(app taskapi.Application) error {
	m.logger = app.Logger()
	m.logger.Info("Initializing HTTP server module")

	cfg, err := app.GetConfigSection(m.Name())
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.Name(), err)
	}
	m.config = cfg.GetConfig().(*HTTPServerConfig)

	var handler http.Handler
	if err := app.GetService("router", &handler); err != nil {
		return fmt.Errorf("%w: %w", ErrNoHandler, err)
	}
	m.handler = handler
	return nil
}

// Start binds the listen address and serves in the background. Bind errors
// are returned directly.
func (m *HTTPServerModule) Start(ctx context.Context) error {
	if m.handler == nil {
		return ErrNoHandler
	}

	addr := m.config.Address()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	m.mu.Lock()
	m.listener = ln
	m.server = &http.Server{
		Handler:      m.handler,
		ReadTimeout:  m.config.ReadTimeout,
		WriteTimeout: m.config.WriteTimeout,
		IdleTimeout:  m.config.IdleTimeout,
	}
	m.done = make(chan struct{})
	m.started = true
	server, done := m.server, m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		var err error
		if m.config.TLS.Enabled {
			m.logger.Info("Using TLS configuration", "cert", m.config.TLS.CertFile, "key", m.config.TLS.KeyFile)
			err = server.ServeTLS(ln, m.config.TLS.CertFile, m.config.TLS.KeyFile)
		} else {
			err = server.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started successfully", "address", ln.Addr().String())
	m.emitEvent(ctx, EventTypeServerStarted, map[string]any{
		"address": ln.Addr().String(),
		"tls":     m.config.TLS.Enabled,
	})
	return nil
}

// Stop gracefully shuts the server down within the shutdown timeout.
func (m *HTTPServerModule) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrServerNotStarted
	}
	server, done := m.server, m.done
	m.started = false
	m.mu.Unlock()

	m.logger.Info("Stopping HTTP server", "timeout", m.config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, m.config.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	<-done

	m.logger.Info("HTTP server stopped successfully")
	m.emitEvent(ctx, EventTypeServerStopped, nil)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (m *HTTPServerModule) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return ""
	}
	return m.listener.Addr().String()
}

// ProvidesServices returns services provided by this module
func (m *HTTPServerModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ModuleName,
			Description: "HTTP server serving the router service",
			Instance:    m,
		},
	}
}

// RegisterObservers implements the ObservableModule interface.
func (m *HTTPServerModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *HTTPServerModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return taskapi.ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

func (m *HTTPServerModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	event := taskapi.NewCloudEvent(eventType, "httpserver-service", data, nil)
	if err := m.EmitEvent(ctx, event); err != nil {
		taskapi.HandleEventEmissionError(err, m.logger, ModuleName, eventType)
	}
}
