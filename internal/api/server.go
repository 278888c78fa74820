// Package api provides the HTTP API server and handlers for the note tree.
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

	"github.com/freenote/freenote-server/internal/auth"
	"github.com/freenote/freenote-server/internal/http/response"
	"github.com/freenote/freenote-server/internal/ratelimit"
	"github.com/freenote/freenote-server/internal/service"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options holds the HTTP-level settings of the server.
type Options struct {
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	notes   *service.NoteService
	tokens  *auth.TokenService
	limiter *ratelimit.KeyedRateLimiter
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(notes *service.NoteService, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		notes:   notes,
		tokens:  tokens,
		limiter: ratelimit.New(opts.RateLimitRPS, opts.RateLimitBurst),
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware(opts)
	s.api = humachi.New(s.router, newHumaConfig())
	RegisterErrorHandler()
	s.setupRoutes()

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

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

func newHumaConfig() huma.Config {
	cfg := huma.DefaultConfig("Freenote API", Version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	return cfg
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.tokens, s.logger))
	s.router.Use(RateLimitMiddleware(s.limiter, s.logger))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
}

// setupRoutes registers all huma operations.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerSessionRoutes()
	s.registerNoteRoutes()
	s.registerSearchRoutes()
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
