package chimux

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lab4/taskapi"
)

// requestLogger logs one structured line per request. Server errors are
// logged at error level and also emitted as request failed events.
func (m *ChiMuxModule) requestLogger(logger taskapi.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"requestID", middleware.GetReqID(r.Context()),
			}
			if status >= http.StatusInternalServerError {
				logger.Error("Request failed", args...)
				m.emitEvent(r.Context(), EventTypeRequestFailed, map[string]any{
					"method":      r.Method,
					"path":        r.URL.Path,
					"status_code": status,
				})
				return
			}
			logger.Info("Request", args...)
		})
	}
}
