// Package web provides the HTTP server and handlers for geocalc.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/geocalc/internal/config"
	"github.com/JonMunkholm/geocalc/internal/core"
	appmw "github.com/JonMunkholm/geocalc/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP server for the computation API.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	gatherer prometheus.Gatherer
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a Server. Metrics are exposed from gatherer; nil
// disables the /metrics route.
func NewServer(service *core.Service, cfg *config.Config, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		service:  service,
		cfg:      cfg,
		gatherer: gatherer,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			limiter := appmw.NewRateLimiter(s.cfg.Rate.RequestsPerMinute, s.cfg.Rate.Burst, s.handleRateLimited)
			r.Use(limiter.Handler)
		}

		r.Post("/area", s.handleArea)
		r.Post("/volume", s.handleVolume)
		r.Post("/weight", s.handleWeight)
		r.Get("/grid", s.handleGrid)
		r.Get("/status", s.handleStatus)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("http server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}
