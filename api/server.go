// Package api exposes the idea recommendation and template matching
// pipeline over HTTP.
//
// Endpoints:
//
//	GET  /health                       liveness probe
//	GET  /ready                        readiness probe (database ping)
//	GET  /api/ideas/next               next idea for the caller
//	GET  /api/ideas/{id}               fetch one idea
//	POST /api/ideas/{id}/features      expand features
//	POST /api/ideas/{id}/frameworks    suggest technology stacks
//	POST /api/ideas/{id}/refine        rework the idea from feedback
//	POST /api/ideas/{id}/like          like an idea
//	POST /api/templates/match          match templates to a description
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sproutapp/sprout/internal/match"
	"github.com/sproutapp/sprout/internal/recommend"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:3500"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because generation endpoints block on a
	// model call.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	health    *HealthHandler
	ideas     *IdeaHandler
	templates *TemplateHandler
}

// NewServer creates a server with all routes registered.
func NewServer(pool *pgxpool.Pool, selector *recommend.Selector, expander *recommend.Expander, store IdeaReader, matcher *match.Matcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		logger:    logger,
		health:    NewHealthHandler(pool, logger),
		ideas:     NewIdeaHandler(selector, expander, store, logger),
		templates: NewTemplateHandler(matcher, logger),
	}

	s.health.RegisterRoutes(mux)
	s.ideas.RegisterRoutes(mux)
	s.templates.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
