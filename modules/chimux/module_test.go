package chimux

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lab4/taskapi"
)

func newTestApp(t *testing.T) (*taskapi.StdApplication, *ChiMuxModule) {
	t.Helper()

	module := NewChiMuxModule()
	app, err := taskapi.NewApplication(
		taskapi.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		taskapi.WithConfigFeeders(),
		taskapi.WithModules(module),
	)
	require.NoError(t, err)

	require.NoError(t, app.Init())
	return app, module
}

func TestChiMuxModule_Services(t *testing.T) {
	app, module := newTestApp(t)

	var router BasicRouter
	require.NoError(t, app.GetService(ServiceName, &router))
	assert.Same(t, module, router)

	var handler http.Handler
	require.NoError(t, app.GetService("router", &handler))

	var chiRouter chi.Router
	require.NoError(t, app.GetService("chi.router", &chiRouter))
}

func TestChiMuxModule_Defaults(t *testing.T) {
	_, module := newTestApp(t)

	assert.Equal(t, []string{"*"}, module.config.AllowedOrigins)
	assert.True(t, module.config.RequestLogging)
	assert.Equal(t, "30s", module.config.Timeout.String())
	assert.Empty(t, module.config.BasePath)
}

func TestChiMuxModule_Routing(t *testing.T) {
	_, module := newTestApp(t)

	module.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
	module.Route("/apiv1", func(r chi.Router) {
		r.Get("/tasks/{task_id}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(chi.URLParam(r, "task_id")))
		})
	})

	rec := httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/apiv1/tasks/42", nil))
	assert.Equal(t, "42", rec.Body.String())

	rec = httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChiMuxModule_BasePath(t *testing.T) {
	_, module := newTestApp(t)
	module.config.BasePath = "/service"

	module.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("root"))
	})

	rec := httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/service", nil))
	assert.Equal(t, "root", rec.Body.String())

	rec = httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChiMuxModule_Recoverer(t *testing.T) {
	_, module := newTestApp(t)

	module.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	module.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChiMuxModule_CORS(t *testing.T) {
	_, module := newTestApp(t)
	module.config.AllowedOrigins = []string{"https://lab4.example"}

	module.Get("/tasks", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Origin", "https://lab4.example")
		rec := httptest.NewRecorder()
		module.ServeHTTP(rec, req)
		assert.Equal(t, "https://lab4.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	})

	t.Run("other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("Origin", "https://elsewhere.example")
		rec := httptest.NewRecorder()
		module.ServeHTTP(rec, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
		req.Header.Set("Origin", "https://lab4.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
		rec := httptest.NewRecorder()
		module.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
	})
}

func TestChiMuxConfig_Validate(t *testing.T) {
	assert.NoError(t, (&ChiMuxConfig{BasePath: "/x"}).Validate())
	assert.ErrorIs(t, (&ChiMuxConfig{BasePath: "x"}).Validate(), ErrInvalidBasePath)
	assert.ErrorIs(t, (&ChiMuxConfig{Timeout: -1}).Validate(), ErrInvalidTimeout)
}
