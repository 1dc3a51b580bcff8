// Package scenedb is the client for the secondary scene-storage service,
// which keeps per-scene breakdowns of previously analyzed videos.
package scenedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Scene is one entry of a stored scene index.
type Scene struct {
	ID          string  `json:"id"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Description string  `json:"description"`
}

// ServiceError represents a failure from the scene-storage service.
type ServiceError struct {
	StatusCode int
	Body       string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("scene lookup failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client retrieves scene indexes for previously analyzed videos.
type Client interface {
	GetSceneIndex(ctx context.Context, videoID, indexID string) ([]Scene, error)
}

type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, apiKey string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) GetSceneIndex(ctx context.Context, videoID, indexID string) ([]Scene, error) {
	url := fmt.Sprintf("%s/videos/%s/scene-indexes/%s", c.baseURL, videoID, indexID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var wrapper struct {
		Scenes []Scene `json:"scenes"`
	}
	if err := json.Unmarshal(respBody, &wrapper); err != nil {
		return nil, fmt.Errorf("unmarshal scenes response: %w", err)
	}

	c.logger.Info("scene index retrieved", "video_id", videoID, "scene_count", len(wrapper.Scenes))
	return wrapper.Scenes, nil
}
