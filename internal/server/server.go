package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newsrank/internal/database"
	"newsrank/internal/news"
	"newsrank/internal/ranker"
	"newsrank/internal/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Server struct {
	db         *database.Database
	engine     *ranker.Engine
	assembler  *news.Assembler
	sessions   *session.Registry
	limiters   *ipRateLimiter
	httpServer *http.Server
	log        *slog.Logger
}

func New(
	addr string,
	db *database.Database,
	engine *ranker.Engine,
	assembler *news.Assembler,
	sessions *session.Registry,
	log *slog.Logger,
) *Server {
	s := &Server{
		db:        db,
		engine:    engine,
		assembler: assembler,
		sessions:  sessions,
		limiters:  newIPRateLimiter(),
		log:       log,
	}

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogging)
	r.Use(s.rateLimit)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httpMetrics)
		r.Use(s.sessionCookie)

		r.Post("/login", s.handleLogin)
		r.Get("/search", s.handleSearch)
		r.Post("/feedback", s.handleFeedback)
		r.Post("/save", s.handleSave)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Get("/feed", s.handleFeed)
			r.Get("/saved", s.handleSaved)
			r.Get("/metrics", s.handleUserMetrics)
		})
	})

	return r
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}
