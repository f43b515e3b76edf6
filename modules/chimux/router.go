package chimux

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BasicRouter is the routing surface other modules register handlers on.
type BasicRouter interface {
	Get(pattern string, handler http.HandlerFunc)
	Post(pattern string, handler http.HandlerFunc)
	Patch(pattern string, handler http.HandlerFunc)
	Delete(pattern string, handler http.HandlerFunc)
	Route(pattern string, fn func(chi.Router)) chi.Router
	Mount(pattern string, handler http.Handler)
	Use(middlewares ...func(http.Handler) http.Handler)
	http.Handler
}

// ChiRouterService defines the interface for working with the Chi router
type ChiRouterService interface {
	// Direct access to the underlying chi router
	ChiRouter() chi.Router
}

// Middleware is an alias for the chi middleware handler function
type Middleware func(http.Handler) http.Handler
