// Package server provides the HTTP surface: chi router, API-key auth,
// rate limiting, and the health endpoint. The MCP handler is mounted at
// POST /mcp behind auth.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jundoHeo/vikunja-mcp/internal/otel"
)

const defaultTimeout = 60 * time.Second

// Server holds the HTTP dependencies for the MCP endpoint.
type Server struct {
	router      *chi.Mux
	mcpHandler  http.Handler
	apiKeys     map[string]string
	rateLimiter *RateLimiter
	corsOrigins []string
	version     string
	startTime   time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithCORSOrigins sets allowed CORS origins (e.g. ["*"] for any).
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRateLimiter sets the request rate limiter (optional).
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// NewServer builds a Server over the given MCP handler. apiKeys maps
// API key -> caller name; an empty map disables auth (local use).
func NewServer(mcpHandler http.Handler, apiKeys map[string]string, version string, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		mcpHandler:  mcpHandler,
		apiKeys:     apiKeys,
		corsOrigins: []string{"*"},
		version:     version,
		startTime:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured http.Handler.
func (s *Server) Routes() http.Handler {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(otel.Middleware())
	r.Use(CORSMiddleware(s.corsOrigins))

	// Unauthenticated
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.apiKeys))
		r.Use(RateLimitMiddleware(s.rateLimiter))
		r.Use(middleware.Timeout(defaultTimeout))
		r.Post("/mcp", s.mcpHandler.ServeHTTP)
	})

	return r
}
