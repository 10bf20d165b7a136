// Package server wires the directory's HTTP surface: the search endpoint,
// health and metrics endpoints and the built site as static files.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ziadkadry99/dirsite/internal/config"
	"github.com/ziadkadry99/dirsite/internal/listing"
	"github.com/ziadkadry99/dirsite/internal/metrics"
	"github.com/ziadkadry99/dirsite/internal/search"
)

// Config holds server configuration.
type Config struct {
	Port           int
	SiteDir        string // built site served at /
	SearchPath     string
	AllowedOrigins []string // empty allows localhost only
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// ConfigFrom maps the application config onto server settings.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Port:           cfg.Server.Port,
		SiteDir:        cfg.OutputDir,
		SearchPath:     cfg.Server.SearchPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
}

// Server serves search requests and the built site.
type Server struct {
	cfg        Config
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server answering searches from store.
func New(cfg Config, store listing.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	metrics.RegisterDirectoryMetrics()

	s := &Server{cfg: cfg, logger: logger}
	s.router = s.buildRouter(search.NewHandler(store, nil, logger))
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter(searchHandler *search.Handler) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Content-Type",
			"HX-Request", "HX-Trigger", "HX-Trigger-Name", "HX-Target", "HX-Current-URL",
		},
		ExposedHeaders: []string{"HX-Trigger-After-Swap"},
		MaxAge:         300,
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		corsOpts.AllowedOrigins = s.cfg.AllowedOrigins
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Long-lived connections (live reload) stay outside the timeout.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.cfg.WriteTimeout))
		search.RegisterRoutes(r, s.cfg.SearchPath, searchHandler)
	})

	if s.cfg.SiteDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.SiteDir)))
	}

	return r
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port. It returns
// http.ErrServerClosed after Shutdown, including a Shutdown that ran first.
func (s *Server) Start() error {
	s.logger.Info("dirsite server listening", zap.String("addr", s.httpServer.Addr), zap.String("site", s.cfg.SiteDir))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
