package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/analysis"
	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/scenedb"
	"github.com/vigilops/vigil-backend/internal/store"
)

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// ServerConfig carries the wired collaborators. Analysis or Scenes may
// be nil when the matching remote service is unconfigured; the
// dependent endpoints then answer with a configuration error instead of
// taking the process down.
type ServerConfig struct {
	Port        int
	Catalog     *catalog.Catalog
	Analysis    *analysis.Service
	Results     *store.Store
	Classifier  *alerts.Classifier
	Scenes      scenedb.Client
	Logger      *slog.Logger
	CORSOrigins string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
