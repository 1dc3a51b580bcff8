// Package analysis orchestrates the full pipeline: resolve sources,
// ensure they are indexed, invoke the remote analysis and persist the
// results.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/ingest"
	"github.com/vigilops/vigil-backend/internal/logging"
	"github.com/vigilops/vigil-backend/internal/store"
)

// Notifier fans freshly produced analysis results out to interested
// consumers. Implementations must be best-effort: a notification failure
// never fails the request that produced the record.
type Notifier interface {
	AnalysisProduced(record store.AnalysisRecord, alert *alerts.Alert)
}

// Service wires the pipeline together. The sweep flow isolates
// per-camera failures (skip policy); the single-camera flow fails the
// whole request (fail policy). Both policies come from the callers the
// endpoints replaced.
type Service struct {
	catalog      *catalog.Catalog
	ingestor     *ingest.Ingestor
	invoker      *Invoker
	results      *store.Store
	classifier   *alerts.Classifier
	notifier     Notifier
	logger       *slog.Logger
	indexName    string
	videoDir     string
	sweepPrompt  string
	streamPrompt string
}

type ServiceConfig struct {
	Catalog      *catalog.Catalog
	Ingestor     *ingest.Ingestor
	Invoker      *Invoker
	Results      *store.Store
	Classifier   *alerts.Classifier
	Notifier     Notifier
	Logger       *slog.Logger
	IndexName    string
	VideoDir     string
	SweepPrompt  string
	StreamPrompt string
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		catalog:      cfg.Catalog,
		ingestor:     cfg.Ingestor,
		invoker:      cfg.Invoker,
		results:      cfg.Results,
		classifier:   cfg.Classifier,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
		indexName:    cfg.IndexName,
		videoDir:     cfg.VideoDir,
		sweepPrompt:  cfg.SweepPrompt,
		streamPrompt: cfg.StreamPrompt,
	}
}

// Sweep ingests and analyzes every camera with a feed. One failing
// camera is logged and skipped; the sweep continues for the rest. The
// results replace the stored collection.
func (s *Service) Sweep(ctx context.Context) ([]store.AnalysisRecord, error) {
	indexID, err := s.ingestor.EnsureIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	records := []store.AnalysisRecord{}
	for _, cam := range s.catalog.FeedCameras() {
		record, err := s.analyzeOne(ctx, &cam, indexID, s.sweepPrompt, false)
		if err != nil {
			s.logger.Warn("camera skipped in sweep", "camera_id", cam.ID, "error", err)
			continue
		}
		records = append(records, *record)
	}

	if err := s.results.ReplaceAll(records); err != nil {
		return nil, err
	}

	s.notify(records)
	s.logger.Info("sweep completed", "cameras", len(s.catalog.FeedCameras()), "analyzed", len(records))
	return records, nil
}

// AnalyzeCamera ingests and analyzes one catalog camera and appends the
// record to the stored collection. Any failure fails the request.
func (s *Service) AnalyzeCamera(ctx context.Context, cameraID string) (*store.AnalysisRecord, error) {
	cam, err := s.catalog.Resolve(cameraID)
	if err != nil {
		return nil, err
	}

	indexID, err := s.ingestor.EnsureIndex(ctx, s.indexName)
	if err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	logger := logging.WithCameraID(s.logger, cam.ID)

	record, err := s.analyzeOne(ctx, cam, indexID, s.streamPrompt, true)
	if err != nil {
		return nil, err
	}
	logger.Info("camera analyzed", "asset_id", record.AssetID, "text_bytes", len(record.Analysis))

	if err := s.results.Append(*record); err != nil {
		return nil, err
	}

	s.notify([]store.AnalysisRecord{*record})
	return record, nil
}

// AnalyzeSource ingests and analyzes an arbitrary video source outside
// the camera catalog. existingAssetID short-circuits ingestion; the id
// is only ever looked up in the configured index. The result is not
// persisted, mirroring the ad-hoc flow this endpoint serves.
func (s *Service) AnalyzeSource(ctx context.Context, videoSource, existingAssetID string) (assetID, indexID, text string, err error) {
	indexID, err = s.ingestor.EnsureIndex(ctx, s.indexName)
	if err != nil {
		return "", "", "", fmt.Errorf("ensure index: %w", err)
	}

	source := s.resolveRawSource(videoSource)
	assetID, err = s.ingestor.EnsureIndexed(ctx, source, indexID, existingAssetID)
	if err != nil {
		return "", "", "", err
	}

	text, err = s.invoker.AnalyzeStreaming(ctx, assetID, s.streamPrompt)
	if err != nil {
		return "", "", "", err
	}

	return assetID, indexID, text, nil
}

// analyzeOne runs ingestion and analysis for one camera. streaming
// selects the analysis call shape.
func (s *Service) analyzeOne(ctx context.Context, cam *catalog.Camera, indexID, prompt string, streaming bool) (*store.AnalysisRecord, error) {
	path, err := s.catalog.SourcePath(cam)
	if err != nil {
		return nil, err
	}

	source := ingest.Source{Filename: filepath.Base(cam.Source)}
	if catalog.IsURL(path) {
		source.URL = path
		source.Filename = cam.Source
	} else {
		source.Path = path
	}

	assetID, err := s.ingestor.EnsureIndexed(ctx, source, indexID, cam.AssetID)
	if err != nil {
		return nil, err
	}

	var text string
	if streaming {
		text, err = s.invoker.AnalyzeStreaming(ctx, assetID, prompt)
	} else {
		text, err = s.invoker.AnalyzeBatch(ctx, assetID, prompt)
	}
	if err != nil {
		return nil, err
	}

	return &store.AnalysisRecord{
		ID:        uuid.New().String(),
		CameraID:  cam.ID,
		AssetID:   assetID,
		Analysis:  text,
		Timestamp: time.Now().Unix(),
	}, nil
}

// resolveRawSource interprets a caller-supplied video_source: URLs pass
// through, absolute paths are used as-is, anything else is relative to
// the video directory. A leading slash on a relative-looking source is
// shed, as older dashboard clients sent paths that way.
func (s *Service) resolveRawSource(videoSource string) ingest.Source {
	if catalog.IsURL(videoSource) {
		return ingest.Source{URL: videoSource, Filename: videoSource}
	}

	path := videoSource
	if strings.HasPrefix(path, "/") && !fileExists(path) {
		path = strings.TrimPrefix(path, "/")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.videoDir, path)
	}
	return ingest.Source{Path: path, Filename: filepath.Base(path)}
}

func (s *Service) notify(records []store.AnalysisRecord) {
	if s.notifier == nil {
		return
	}
	for _, record := range records {
		s.notifier.AnalysisProduced(record, s.classifier.Classify(record))
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
