package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/analysis"
	"github.com/vigilops/vigil-backend/internal/api"
	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/config"
	"github.com/vigilops/vigil-backend/internal/ingest"
	"github.com/vigilops/vigil-backend/internal/logging"
	"github.com/vigilops/vigil-backend/internal/notify"
	"github.com/vigilops/vigil-backend/internal/scenedb"
	"github.com/vigilops/vigil-backend/internal/store"
	"github.com/vigilops/vigil-backend/internal/videoai"
)

var Version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	// Missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting vigil backend", "version", Version, "data_dir", cfg.DataDir())

	cat, err := catalog.Load(cfg.CamerasPath(), cfg.VideoDir())
	if err != nil {
		return fmt.Errorf("failed to load camera catalog: %w", err)
	}
	logger.Info("camera catalog loaded", "cameras", len(cat.Cameras()), "with_feed", len(cat.FeedCameras()))

	results := store.New(cfg.ResultsPath(), logging.WithComponent(logger, "store"))
	classifier := alerts.NewClassifier(nil)

	// Without the primary API key the analysis endpoints answer with a
	// configuration error; the alert feed and catalog stay up.
	var analysisSvc *analysis.Service
	if cfg.VideoAIKey() != "" {
		logger.Info("video analysis client configured", "base_url", cfg.VideoAIBaseURL(), "api_key", logging.SanitizeKey(cfg.VideoAIKey()))
		aiClient := videoai.NewHTTPClient(cfg.VideoAIBaseURL(), cfg.VideoAIKey(), logging.WithComponent(logger, "videoai"))
		ingestor := ingest.New(aiClient, logging.WithComponent(logger, "ingest"), cfg.PollInterval(), cfg.PollTimeout())
		invoker := analysis.NewInvoker(aiClient, logging.WithComponent(logger, "analysis"))

		var notifier analysis.Notifier
		var publisher *notify.Publisher
		if cfg.NATSURL() != "" {
			publisher, err = notify.NewPublisher(cfg.NATSURL(), cfg.NATSSubject(), logging.WithComponent(logger, "notify"))
			if err != nil {
				logger.Warn("nats unavailable, notifications disabled", "error", err)
			} else {
				notifier = publisher
				defer publisher.Shutdown()
			}
		}

		analysisSvc = analysis.NewService(analysis.ServiceConfig{
			Catalog:      cat,
			Ingestor:     ingestor,
			Invoker:      invoker,
			Results:      results,
			Classifier:   classifier,
			Notifier:     notifier,
			Logger:       logging.WithComponent(logger, "analysis"),
			IndexName:    cfg.IndexName(),
			VideoDir:     cfg.VideoDir(),
			SweepPrompt:  cfg.SweepPrompt(),
			StreamPrompt: cfg.StreamPrompt(),
		})
	} else {
		logger.Warn("video analysis API key not set, analysis endpoints disabled")
	}

	var scenes scenedb.Client
	if cfg.SceneDBKey() != "" {
		scenes = scenedb.NewHTTPClient(cfg.SceneDBBaseURL(), cfg.SceneDBKey(), logging.WithComponent(logger, "scenedb"))
	} else {
		logger.Warn("scene storage API key not set, scene-details endpoint disabled")
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:        cfg.Port(),
		Catalog:     cat,
		Analysis:    analysisSvc,
		Results:     results,
		Classifier:  classifier,
		Scenes:      scenes,
		Logger:      logging.WithComponent(logger, "api"),
		CORSOrigins: cfg.CORSOrigins(),
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}
