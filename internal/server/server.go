// Package server exposes the query pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/tomventa/mdsql/internal/logger"
	"github.com/tomventa/mdsql/internal/query"
	"github.com/tomventa/mdsql/internal/render"
)

// Runner runs the pipeline for one request. *query.Service satisfies it.
type Runner interface {
	Run(ctx context.Context, raw string, format render.Format) (*query.Result, error)
}

// Config holds configuration for the HTTP server.
type Config struct {
	Addr   string
	APIKey string
}

// Server is the HTTP front end of the query service.
type Server struct {
	runner Runner
	addr   string
	apiKey string
}

// New creates a new Server.
func New(cfg Config, runner Runner) *Server {
	return &Server{runner: runner, addr: cfg.Addr, apiKey: cfg.APIKey}
}

// Handler returns the routed handler with its middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		requestID,
		accessLog,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}),
	)

	r.Get("/", serveIndex)
	r.Handle("/static/*", staticHandler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.With(s.requireAPIKey).Post("/query", s.handleQuery)
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log := logger.FromContext(ctx)
	if s.apiKey == "" {
		log.Warn().Msg("no API key configured, every /query request will be rejected")
	}
	log.Info().Str("addr", s.addr).Msg("starting mdsql server")

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
