package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/sendtime-optimizer/internal/config"
)

// Server wraps the HTTP server hosting the analysis API.
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates the API server.
func NewServer(cfg config.ServerConfig, h *Handlers) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h, cfg.AllowedOrigins),
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Read/write timeouts are generous to support large CSV uploads.
		ReadTimeout:       5 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
