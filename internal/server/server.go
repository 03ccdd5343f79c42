// Package server provides the HTTP API for Yubin.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/config"
	"github.com/meridianlabs/yubin/internal/search"
	"github.com/meridianlabs/yubin/internal/tools"
)

// Server is the HTTP server for the Yubin API.
type Server struct {
	dispatcher *tools.Dispatcher
	engine     *search.Engine
	config     *config.ServerConfig
	logger     *zap.Logger
	server     *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	dispatcher *tools.Dispatcher,
	engine *search.Engine,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		dispatcher: dispatcher,
		engine:     engine,
		config:     cfg,
		logger:     logger,
	}
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/tools/{name}", s.handleToolCall)
	r.Get("/api/v1/tools", s.handleToolList)
	r.Post("/api/v1/search", s.handleSearch)
	r.Get("/api/v1/postal/{code}", s.handleGeocode)
	r.Get("/api/v1/postal/{code}/validate", s.handleValidate)
	r.Get("/api/v1/reverse", s.handleReverse)
	r.Get("/api/v1/nearest", s.handleNearest)
	r.Get("/api/v1/suggest", s.handleSuggest)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/health", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
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
