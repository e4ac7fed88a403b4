package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/workoutlog/internal/kvstore"
	"github.com/claude/workoutlog/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Options holds the optional parts of a Server.
type Options struct {
	// APIKey, if set, is required in X-API-Key on the storage routes.
	APIKey string
	// Metrics, if set, instruments every request and storage operation.
	Metrics *metrics.Manager
	// MetricsHandler, if set, is mounted at /metrics.
	MetricsHandler http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store   kvstore.Store
	log     *slog.Logger
	opts    Options
	metrics *metrics.Manager
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(store kvstore.Store, log *slog.Logger, opts Options) *Server {
	s := &Server{
		store:   store,
		log:     log,
		opts:    opts,
		metrics: opts.Metrics,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	if s.metrics != nil {
		s.router.Use(PanicRecovery(s.metrics, s.log))
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api/storage", func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(APIKeyAuth(s.opts.APIKey))
		}
		r.Get("/{key}", s.handleGet)
		r.Put("/{key}", s.handlePut)
		r.Delete("/{key}", s.handleDelete)
	})

	if s.opts.MetricsHandler != nil {
		s.router.Handle("/metrics", s.opts.MetricsHandler)
	}
}
