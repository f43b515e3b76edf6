// Package chimux provides a Chi-based HTTP router module.
//
// The module owns a single chi.Mux with the base middleware stack (request
// id, real IP, access logging, panic recovery, optional timeout and CORS)
// and publishes it so other modules can register their routes during Init.
//
// # Service Registration
//
//   - "chimux.router": the module itself, usable as BasicRouter
//   - "router": the same instance, consumed by httpserver as an http.Handler
//   - "chi.router": the underlying chi.Router
//
// # Usage
//
//	var router chimux.BasicRouter
//	if err := app.GetService("chimux.router", &router); err != nil {
//	    return err
//	}
//	router.Route("/apiv1", func(r chi.Router) {
//	    r.Get("/tasks", listTasks)
//	})
//
// Middleware must be added before the first route is registered; chi panics otherwise.
package chimux

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lab4/taskapi"
)

// ModuleName is the unique identifier for the chimux module.
const ModuleName = "chimux"

// ServiceName is the name of the primary service provided by this module.
const ServiceName = "chimux.router"

// ChiMuxModule provides HTTP routing functionality using the Chi router library.
type ChiMuxModule struct {
	name    string
	config  *ChiMuxConfig
	router  *chi.Mux
	logger  taskapi.Logger
	subject taskapi.Subject
}

// NewChiMuxModule creates a new instance of the chimux module.
//
//	app.RegisterModule(chimux.NewChiMuxModule())
func NewChiMuxModule() *ChiMuxModule {
	return &ChiMuxModule{
		name: ModuleName,
	}
}

// Name returns the unique identifier for this module.
func (m *ChiMuxModule) Name() string {
	return m.name
}

// RegisterConfig registers the module's configuration structure.
func (m *ChiMuxModule) RegisterConfig(app taskapi.Application) error {
	app.RegisterConfigSection(m.Name(), taskapi.NewStdConfigProvider(&ChiMuxConfig{}))
	app.Logger().Debug("Registered config section", "module", m.Name())
	return nil
}

// Init builds the router and its middleware stack from the loaded config.
func (m *ChiMuxModule) Init(app taskapi.Application) error {
	m.logger = app.Logger()

	cfg, err := app.GetConfigSection(m.name)
	if err != nil {
		return fmt.Errorf("failed to get config section '%s': %w", m.name, err)
	}
	m.config = cfg.GetConfig().(*ChiMuxConfig)

	m.router = chi.NewRouter()
	m.router.Use(middleware.RequestID)
	m.router.Use(middleware.RealIP)
	if m.config.RequestLogging {
		m.router.Use(m.requestLogger(m.logger))
	}
	m.router.Use(middleware.Recoverer)
	if m.config.Timeout > 0 {
		m.router.Use(middleware.Timeout(m.config.Timeout))
	}
	if len(m.config.AllowedOrigins) > 0 {
		m.router.Use(m.corsMiddleware())
	}

	m.logger.Info("Chimux module initialized",
		"basePath", m.config.BasePath,
		"timeout", m.config.Timeout,
		"requestLogging", m.config.RequestLogging)
	return nil
}

// Start emits a router started event with the registered route count.
func (m *ChiMuxModule) Start(ctx context.Context) error {
	m.emitEvent(ctx, EventTypeRouterStarted, map[string]any{
		"base_path":    m.config.BasePath,
		"routes_count": len(m.router.Routes()),
	})
	return nil
}

// Stop emits a router stopped event.
func (m *ChiMuxModule) Stop(ctx context.Context) error {
	m.emitEvent(ctx, EventTypeRouterStopped, nil)
	return nil
}

// ProvidesServices returns the router under each of its service names.
func (m *ChiMuxModule) ProvidesServices() []taskapi.ServiceProvider {
	return []taskapi.ServiceProvider{
		{
			Name:        ServiceName,
			Description: "Chi router service for HTTP routing",
			Instance:    m,
		},
		{
			Name:        "router",
			Description: "HTTP handler serving every registered route",
			Instance:    m,
		},
		{
			Name:        "chi.router",
			Description: "Full Chi router with Route/Group support",
			Instance:    m.ChiRouter(),
		},
	}
}

// ChiRouter returns the underlying chi router.
func (m *ChiMuxModule) ChiRouter() chi.Router {
	return m.router
}

func (m *ChiMuxModule) Get(pattern string, handler http.HandlerFunc) {
	m.router.Get(pattern, handler)
	m.routeRegistered(http.MethodGet, pattern)
}

func (m *ChiMuxModule) Post(pattern string, handler http.HandlerFunc) {
	m.router.Post(pattern, handler)
	m.routeRegistered(http.MethodPost, pattern)
}

func (m *ChiMuxModule) Patch(pattern string, handler http.HandlerFunc) {
	m.router.Patch(pattern, handler)
	m.routeRegistered(http.MethodPatch, pattern)
}

func (m *ChiMuxModule) Delete(pattern string, handler http.HandlerFunc) {
	m.router.Delete(pattern, handler)
	m.routeRegistered(http.MethodDelete, pattern)
}

func (m *ChiMuxModule) Route(pattern string, fn func(chi.Router)) chi.Router {
	sub := m.router.Route(pattern, fn)
	m.routeRegistered("*", pattern+"/*")
	return sub
}

func (m *ChiMuxModule) Mount(pattern string, handler http.Handler) {
	m.router.Mount(pattern, handler)
	m.routeRegistered("*", pattern)
}

func (m *ChiMuxModule) Use(middlewares ...func(http.Handler) http.Handler) {
	m.router.Use(middlewares...)
}

// Routes returns the routing tree of the underlying router.
func (m *ChiMuxModule) Routes() []chi.Route {
	return m.router.Routes()
}

// ServeHTTP strips the configured base path and dispatches to the router.
func (m *ChiMuxModule) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.config.BasePath == "" {
		m.router.ServeHTTP(w, r)
		return
	}

	if !strings.HasPrefix(r.URL.Path, m.config.BasePath) {
		http.NotFound(w, r)
		return
	}

	r2 := new(http.Request)
	*r2 = *r
	r2.URL = new(url.URL)
	*r2.URL = *r.URL
	r2.URL.Path = strings.TrimPrefix(r.URL.Path, m.config.BasePath)
	if r2.URL.Path == "" {
		r2.URL.Path = "/"
	}
	m.router.ServeHTTP(w, r2)
}

func (m *ChiMuxModule) routeRegistered(method, pattern string) {
	m.logger.Debug("Route registered", "module", m.name, "method", method, "pattern", pattern)
	m.emitEvent(context.Background(), EventTypeRouteRegistered, map[string]any{
		"method":  method,
		"pattern": pattern,
	})
}

func (m *ChiMuxModule) corsMiddleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := false
			for _, allowedOrigin := range m.config.AllowedOrigins {
				if allowedOrigin == "*" || allowedOrigin == origin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				if len(m.config.AllowedMethods) > 0 {
					w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.config.AllowedMethods, ", "))
				}
				if len(m.config.AllowedHeaders) > 0 {
					w.Header().Set("Access-Control-Allow-Headers", strings.Join(m.config.AllowedHeaders, ", "))
				}
				if m.config.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(m.config.MaxAge))
				}
			}

			// Preflight
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RegisterObservers implements the ObservableModule interface.
func (m *ChiMuxModule) RegisterObservers(subject taskapi.Subject) error {
	m.subject = subject
	return nil
}

// EmitEvent implements the ObservableModule interface.
func (m *ChiMuxModule) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	if m.subject == nil {
		return ErrNoSubjectForEventEmission
	}
	if err := m.subject.NotifyObservers(ctx, event); err != nil {
		return fmt.Errorf("failed to notify observers: %w", err)
	}
	return nil
}

// emitEvent skips silently until the module is attached to a subject.
func (m *ChiMuxModule) emitEvent(ctx context.Context, eventType string, data map[string]any) {
	if m.subject == nil {
		return
	}

	event := taskapi.NewCloudEvent(eventType, "chimux-service", data, nil)
	if emitErr := m.EmitEvent(ctx, event); emitErr != nil {
		if errors.Is(emitErr, ErrNoSubjectForEventEmission) {
			return
		}
		if m.logger != nil {
			m.logger.Debug("Failed to emit chimux event", "eventType", eventType, "error", emitErr)
		}
	}
}
