// Package server provides the HTTP API over the valuation engines and the
// saved strategy collection.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"options-strategist/internal/config"
	"options-strategist/internal/logging"
	"options-strategist/internal/models"
	"options-strategist/internal/store"
)

// Version is reported by the health endpoint.
const Version = "0.3.0"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Config holds server dependencies.
type Config struct {
	Log      zerolog.Logger
	Store    store.StrategyStore // optional; strategy routes answer 503 without it
	Server   config.ServerConfig
	Addr     string
	Defaults models.ModelParameters
}

// Server represents the HTTP server.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	store    store.StrategyStore
	defaults models.ModelParameters
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "server").Logger(),
		store:    cfg.Store,
		defaults: cfg.Defaults,
	}

	s.setupMiddleware(cfg.Server)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  orDefault(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: orDefault(cfg.Server.WriteTimeout, 15*time.Second),
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(cfg config.ServerConfig) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(orDefault(cfg.WriteTimeout, 30*time.Second)))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/price", s.handlePrice)
		r.Post("/payoff", s.handlePayoff)
		r.Post("/aggregate", s.handleAggregate)
		r.Post("/curve", s.handleCurve)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/scenarios", s.handleScenarios)
		r.Post("/chart", s.handleChart)

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", s.handleListStrategies)
			r.Get("/{name}", s.handleGetStrategy)
			r.Put("/{name}", s.handleSaveStrategy)
			r.Delete("/{name}", s.handleDeleteStrategy)
		})
	})
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests and hands a request-scoped logger to handlers.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger := s.log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		r = r.WithContext(logging.WithLogger(r.Context(), logger))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.LogRequest(logger, r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
