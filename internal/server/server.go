// Package server provides the HTTP API for docanalyzer.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
	"github.com/hyperjump/docanalyzer/internal/pipeline"
	"go.uber.org/zap"
)

// multipartOverhead is the slack allowed on top of the document limit for form framing.
const multipartOverhead = 1 << 20

// Analyzer runs documents through the analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*models.AnalysisReport, error)
	Health(ctx context.Context) models.Health
}

// Server is the HTTP server for the docanalyzer API.
type Server struct {
	analyzer Analyzer
	config   *config.ServerConfig
	limits   config.LimitsConfig
	logger   *zap.Logger
	server   *http.Server

	watch         DirectoryWatcher
	configPath    string
	watchConfig   *config.Config
	watchConfigMu sync.Mutex
}

// NewServer creates a server with the given dependencies.
func NewServer(analyzer Analyzer, cfg *config.ServerConfig, limits config.LimitsConfig, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		analyzer: analyzer,
		config:   cfg,
		limits:   limits,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router with all routes and middleware mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if s.config.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/extract/text", s.handleExtractText)
		r.Post("/extract/entities", s.handleExtractEntities)
		r.Post("/extract/math", s.handleExtractMath)
		r.Post("/extract/summary", s.handleExtractSummary)
		r.Get("/watch/directories", s.handleWatchDirectoriesList)
		r.Post("/watch/directories", s.handleWatchDirectoriesAdd)
		r.Delete("/watch/directories", s.handleWatchDirectoriesRemove)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
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
