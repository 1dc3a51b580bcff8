// Package ingest drives video sources into the remote index: it ensures
// the index exists, deduplicates against already-indexed assets, submits
// new content and waits for remote indexing to finish.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/videoai"
)

// Source describes one video to ingest. Exactly one of Path or URL is
// set. Filename is the dedup key within the index.
type Source struct {
	Filename string
	Path     string
	URL      string
}

// Ingestor runs the ingestion state machine against the remote service.
type Ingestor struct {
	client       videoai.Client
	logger       *slog.Logger
	pollInterval time.Duration
	pollTimeout  time.Duration
}

func New(client videoai.Client, logger *slog.Logger, pollInterval, pollTimeout time.Duration) *Ingestor {
	return &Ingestor{
		client:       client,
		logger:       logger,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
	}
}

// EnsureIndex returns the id of the index named name, creating it with
// the default engine set if the remote system does not have one. The
// remote system does not enforce name uniqueness; the first match wins.
func (g *Ingestor) EnsureIndex(ctx context.Context, name string) (string, error) {
	indexes, err := g.client.ListIndexes(ctx)
	if err != nil {
		return "", fmt.Errorf("list indexes: %w", err)
	}

	for _, idx := range indexes {
		if idx.Name == name {
			return idx.ID, nil
		}
	}

	idx, err := g.client.CreateIndex(ctx, name, videoai.DefaultEngines)
	if err != nil {
		return "", fmt.Errorf("create index %q: %w", name, err)
	}

	g.logger.Info("index ensured", "index_id", idx.ID, "name", name)
	return idx.ID, nil
}

// EnsureIndexed returns the id of a remote asset for source, submitting
// and waiting for indexing when needed.
//
// When existingAssetID is given the asset is looked up by id and its
// status taken as authoritative with no re-poll; a caller passing a
// stale non-ready id gets handed a not-ready asset downstream. Otherwise
// assets are matched by filename, and only an unmatched source is
// submitted as a new indexing task.
func (g *Ingestor) EnsureIndexed(ctx context.Context, source Source, indexID, existingAssetID string) (string, error) {
	if existingAssetID != "" {
		asset, err := g.client.GetAsset(ctx, indexID, existingAssetID)
		if err != nil {
			return "", fmt.Errorf("look up existing asset %s: %w", existingAssetID, err)
		}
		g.logger.Info("using existing asset", "asset_id", asset.ID, "status", asset.Status)
		return asset.ID, nil
	}

	assets, err := g.client.ListAssets(ctx, indexID)
	if err != nil {
		return "", fmt.Errorf("list assets: %w", err)
	}
	for _, a := range assets {
		if a.Filename == source.Filename {
			g.logger.Info("source already indexed", "asset_id", a.ID, "filename", source.Filename)
			return a.ID, nil
		}
	}

	task, err := g.submit(ctx, source, indexID)
	if err != nil {
		return "", err
	}

	return g.waitForTask(ctx, task.ID)
}

// submit opens the source content and creates the remote indexing task.
// A missing local file aborts before any remote call is made.
func (g *Ingestor) submit(ctx context.Context, source Source, indexID string) (*videoai.Task, error) {
	upload := videoai.UploadSource{Filename: source.Filename, URL: source.URL}

	if source.URL == "" {
		f, err := os.Open(source.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, &catalog.NotFoundError{What: "video file", ID: source.Path}
			}
			return nil, fmt.Errorf("open source file: %w", err)
		}
		defer f.Close()
		if upload.Filename == "" {
			upload.Filename = filepath.Base(source.Path)
		}
		upload.Reader = f

		task, err := g.client.CreateTask(ctx, indexID, upload)
		if err != nil {
			return nil, fmt.Errorf("submit %s: %w", upload.Filename, err)
		}
		g.logger.Info("indexing task created", "task_id", task.ID, "filename", upload.Filename)
		return task, nil
	}

	task, err := g.client.CreateTask(ctx, indexID, upload)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", source.URL, err)
	}
	g.logger.Info("indexing task created", "task_id", task.ID, "url", source.URL)
	return task, nil
}

// waitForTask polls the task at the configured interval until it reaches
// a terminal status. The wait is a select on the timer and the context,
// so a blocked ingestion never pins a worker past cancellation, and the
// configured maximum wait turns into a timeout-kind remote error.
func (g *Ingestor) waitForTask(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(g.pollTimeout)
	timer := time.NewTimer(g.pollInterval)
	defer timer.Stop()

	for {
		task, err := g.client.GetTask(ctx, taskID)
		if err != nil {
			return "", fmt.Errorf("poll task %s: %w", taskID, err)
		}

		switch task.Status {
		case videoai.AssetStatusReady:
			g.logger.Info("indexing complete", "task_id", taskID, "asset_id", task.AssetID)
			return task.AssetID, nil
		case videoai.AssetStatusFailed:
			msg := task.Error
			if msg == "" {
				msg = "remote indexing failed"
			}
			return "", &videoai.RemoteError{Kind: videoai.KindFailed, Op: "wait for indexing", Message: msg}
		}

		g.logger.Debug("indexing pending", "task_id", taskID, "status", task.Status)

		if time.Now().After(deadline) {
			return "", &videoai.RemoteError{
				Kind:    videoai.KindTimeout,
				Op:      "wait for indexing",
				Message: fmt.Sprintf("task %s not ready after %s", taskID, g.pollTimeout),
			}
		}

		timer.Reset(g.pollInterval)
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("wait for indexing: %w", ctx.Err())
		case <-timer.C:
		}
	}
}
