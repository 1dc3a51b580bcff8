package api

import (
	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/scenedb"
	"github.com/vigilops/vigil-backend/internal/store"
)

type AnalyzeAllResponse struct {
	Success bool                   `json:"success"`
	Results []store.AnalysisRecord `json:"results"`
}

type AnalyzeCameraRequest struct {
	CameraID string `json:"cameraId"`
}

type AnalyzeCameraResponse struct {
	Success bool                 `json:"success"`
	Result  store.AnalysisRecord `json:"result"`
}

type AlertsResponse struct {
	Alerts []alerts.Alert `json:"alerts"`
}

type CamerasResponse struct {
	Cameras []catalog.Camera `json:"cameras"`
}

// AnalyzeSourceRequest is the ad-hoc analysis request. IntervalSeconds
// and FrameCount survive from an older sampling-based engine; they are
// accepted for wire compatibility and ignored.
type AnalyzeSourceRequest struct {
	VideoSource     string  `json:"video_source"`
	ExistingVideoID string  `json:"existing_video_id,omitempty"`
	IntervalSeconds float64 `json:"interval_seconds,omitempty"`
	FrameCount      int     `json:"frame_count,omitempty"`
}

// AnalyzeSourceResponse reports the ad-hoc analysis outcome. Status is
// "success" or "error"; on error the HTTP status stays 200 and Error
// carries the detail, which is what the dashboard expects.
type AnalyzeSourceResponse struct {
	Status       string `json:"status"`
	VideoID      string `json:"video_id,omitempty"`
	IndexID      string `json:"index_id,omitempty"`
	AnalysisText string `json:"analysis_text,omitempty"`
	Error        string `json:"error,omitempty"`
}

type SceneDetailsRequest struct {
	VideoID string `json:"video_id"`
	IndexID string `json:"index_id"`
}

type SceneDetailsResponse struct {
	Status string          `json:"status"`
	Scenes []scenedb.Scene `json:"scenes"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
