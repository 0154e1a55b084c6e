// Package server provides the HTTP API for querying and ingesting documents.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/raghul-ravi/rag-it/internal/config"
	"github.com/raghul-ravi/rag-it/internal/ingest"
	"github.com/raghul-ravi/rag-it/internal/query"
	"github.com/raghul-ravi/rag-it/internal/storage"
	"github.com/raghul-ravi/rag-it/internal/vector"
)

// requestTimeout bounds one request including LLM generation.
const requestTimeout = 120 * time.Second

// Server is the HTTP API over the query engine and ingestion pipeline.
type Server struct {
	engine   *query.Engine
	pipeline *ingest.Pipeline
	catalog  storage.Catalog
	store    vector.Store
	cfg      *config.Config
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *query.Engine,
	pipeline *ingest.Pipeline,
	catalog storage.Catalog,
	store vector.Store,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   engine,
		pipeline: pipeline,
		catalog:  catalog,
		store:    store,
		cfg:      cfg,
		logger:   logger,
	}
}

// Routes returns the configured router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/query", s.handleQuery)
	r.Post("/api/v1/ingest", s.handleIngest)
	r.Get("/api/v1/sources", s.handleListSources)
	r.Delete("/api/v1/sources", s.handleRemoveSource)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
