// Package api provides the HTTP API server and handlers for the team service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skyblockhq/teamsvc/internal/ratelimit"
	"github.com/skyblockhq/teamsvc/internal/sse"
	"github.com/skyblockhq/teamsvc/internal/validation"
)

// Options tunes request handling.
type Options struct {
	// InviteCooldown is passed to every invite creation. Zero disables it.
	InviteCooldown time.Duration
	// AllowedOrigins lists CORS origins. Empty allows any origin.
	AllowedOrigins []string
	// InviteLimiter throttles invite commands per acting player. Nil disables it.
	InviteLimiter *ratelimit.KeyedRateLimiter
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services   *Services
	opts       Options
	router     *chi.Mux
	api        huma.API
	validator  *validation.Validator
	sseHandler *sse.Handler
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		services:  services,
		opts:      opts,
		router:    chi.NewRouter(),
		validator: validation.New(),
		logger:    logger,
	}
	if services.Events != nil {
		s.sseHandler = sse.NewHandler(services.Events, logger)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Team Invite API", "1.0.0")
	humaConfig.Info.Description = "Island team invitations and roster registry"
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) setupMiddleware() {
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", playerIDHeader},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerInviteRoutes()
	s.registerPlayerRoutes()
	s.registerIslandRoutes()

	if s.sseHandler != nil {
		s.router.Get("/api/v1/players/{id}/events", s.sseHandler.ServeHTTP)
	}
}
