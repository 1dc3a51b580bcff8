package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/config"
	"github.com/vigilops/vigil-backend/internal/scenedb"
)

var (
	errAnalysisUnconfigured = &config.ConfigError{Key: config.EnvVideoAIKey}
	errScenesUnconfigured   = &config.ConfigError{Key: config.EnvSceneDBKey}
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: splitOrigins(cfg.CORSOrigins),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/analyze/health", healthHandler())
	r.Get("/cameras", listCamerasHandler(cfg))
	r.Get("/alerts", alertsHandler(cfg))
	r.Post("/analyze", analyzeAllHandler(cfg))
	r.Post("/analyze-video", analyzeCameraHandler(cfg))
	r.Post("/analyze/video", analyzeSourceHandler(cfg))
	r.Post("/analyze/scene-details", sceneDetailsHandler(cfg))

	return r
}

func healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().Unix(),
		})
	}
}

func listCamerasHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, CamerasResponse{Cameras: cfg.Catalog.Cameras()})
	}
}

// alertsHandler derives the alert feed from the stored analysis
// collection on every read. An absent store document is an empty feed,
// never an error.
func alertsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := cfg.Results.ReadAll()
		if err != nil {
			cfg.Logger.Error("alerts read failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "failed to read analysis results", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, AlertsResponse{Alerts: cfg.Classifier.ClassifyAll(records)})
	}
}

func analyzeAllHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Analysis == nil {
			WriteError(w, http.StatusInternalServerError, errAnalysisUnconfigured.Error(), "CONFIG_ERROR")
			return
		}

		records, err := cfg.Analysis.Sweep(r.Context())
		if err != nil {
			writeAnalysisError(w, cfg, err)
			return
		}

		WriteJSON(w, http.StatusOK, AnalyzeAllResponse{Success: true, Results: records})
	}
}

func analyzeCameraHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Analysis == nil {
			WriteError(w, http.StatusInternalServerError, errAnalysisUnconfigured.Error(), "CONFIG_ERROR")
			return
		}

		var req AnalyzeCameraRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.CameraID == "" {
			WriteError(w, http.StatusBadRequest, "cameraId is required", "BAD_REQUEST")
			return
		}

		record, err := cfg.Analysis.AnalyzeCamera(r.Context(), req.CameraID)
		if err != nil {
			writeAnalysisError(w, cfg, err)
			return
		}

		WriteJSON(w, http.StatusOK, AnalyzeCameraResponse{Success: true, Result: *record})
	}
}

// analyzeSourceHandler serves the ad-hoc flow. Failures answer HTTP 200
// with a status:"error" body; the consuming dashboard reads the status
// field, not the HTTP code.
func analyzeSourceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeSourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.VideoSource == "" {
			WriteError(w, http.StatusBadRequest, "video_source is required", "BAD_REQUEST")
			return
		}

		if cfg.Analysis == nil {
			WriteJSON(w, http.StatusOK, AnalyzeSourceResponse{
				Status: "error",
				Error:  errAnalysisUnconfigured.Error(),
			})
			return
		}

		assetID, indexID, text, err := cfg.Analysis.AnalyzeSource(r.Context(), req.VideoSource, req.ExistingVideoID)
		if err != nil {
			cfg.Logger.Error("ad-hoc analysis failed", "video_source", req.VideoSource, "error", err)
			WriteJSON(w, http.StatusOK, AnalyzeSourceResponse{Status: "error", Error: err.Error()})
			return
		}

		WriteJSON(w, http.StatusOK, AnalyzeSourceResponse{
			Status:       "success",
			VideoID:      assetID,
			IndexID:      indexID,
			AnalysisText: text,
		})
	}
}

func sceneDetailsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Scenes == nil {
			WriteError(w, http.StatusInternalServerError, errScenesUnconfigured.Error(), "CONFIG_ERROR")
			return
		}

		var req SceneDetailsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
		if req.VideoID == "" || req.IndexID == "" {
			WriteError(w, http.StatusBadRequest, "video_id and index_id are required", "BAD_REQUEST")
			return
		}

		scenes, err := cfg.Scenes.GetSceneIndex(r.Context(), req.VideoID, req.IndexID)
		if err != nil {
			cfg.Logger.Error("scene lookup failed", "video_id", req.VideoID, "error", err)
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if scenes == nil {
			scenes = []scenedb.Scene{}
		}

		WriteJSON(w, http.StatusOK, SceneDetailsResponse{Status: "success", Scenes: scenes})
	}
}

// writeAnalysisError maps pipeline errors onto the response contract:
// unknown cameras and missing files are the caller's fault (404),
// everything else is a server-side failure (500).
func writeAnalysisError(w http.ResponseWriter, cfg ServerConfig, err error) {
	var nf *catalog.NotFoundError
	if errors.As(err, &nf) {
		WriteError(w, http.StatusNotFound, nf.Error(), "NOT_FOUND")
		return
	}

	cfg.Logger.Error("analysis failed", "error", err)
	WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}

func splitOrigins(origins string) []string {
	if origins == "" {
		return []string{"*"}
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
