// Package server provides the HTTP API for Sakuin.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/sakuin/internal/config"
	"github.com/hyperjump/sakuin/internal/indexer"
	"github.com/hyperjump/sakuin/internal/search"
	"github.com/hyperjump/sakuin/internal/storage"
)

// Service bundles the write and read path for one record type.
type Service struct {
	Indexer  *indexer.Indexer
	Searcher *search.Searcher
}

// Server is the HTTP server for the Sakuin API.
type Server struct {
	services map[string]*Service
	store    storage.Store
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies. services is keyed
// by record type.
func NewServer(
	services map[string]*Service,
	store storage.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		services: services,
		store:    store,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/search", s.handleSearch)
	r.Post("/api/v1/related", s.handleRelated)
	r.Post("/api/v1/reindex", s.handleReindex)
	r.Put("/api/v1/records/{type}/{pk}", s.handleUpsertRecord)
	r.Get("/api/v1/records/{type}/{pk}", s.handleGetRecord)
	r.Delete("/api/v1/records/{type}/{pk}", s.handleDeleteRecord)
	r.Delete("/api/v1/indices/{type}", s.handleClearIndex)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
