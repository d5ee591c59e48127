// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/geocalc/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Logger logs one structured line per request with status, size and
// duration. It runs after RequestID and TrustedRealIP so the line carries
// the request ID and the resolved client address.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log := logging.FromContext(r.Context())
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"ip", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			}
			if status >= http.StatusInternalServerError {
				log.Warn("request", attrs...)
			} else {
				log.Info("request", attrs...)
			}
		}()

		next.ServeHTTP(ww, r)
	})
}
