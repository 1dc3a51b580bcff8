package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vigilops/vigil-backend/internal/alerts"
	"github.com/vigilops/vigil-backend/internal/catalog"
	"github.com/vigilops/vigil-backend/internal/scenedb"
	"github.com/vigilops/vigil-backend/internal/store"
)

func testConfig(t *testing.T) ServerConfig {
	t.Helper()

	cat, err := catalog.Load("", t.TempDir())
	if err != nil {
		t.Fatalf("catalog.Load() error = %v", err)
	}

	return ServerConfig{
		Port:        8787,
		Catalog:     cat,
		Results:     store.New(filepath.Join(t.TempDir(), "analysis_results.json"), nil),
		Classifier:  alerts.NewClassifier(nil),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		CORSOrigins: "*",
	}
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func TestHealthHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/analyze/health", nil)

	healthHandler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if _, ok := body["timestamp"].(float64); !ok {
		t.Error("timestamp missing from response")
	}
}

func TestAlertsHandler_AbsentStore(t *testing.T) {
	cfg := testConfig(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)

	alertsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d (absent store is an empty feed)", rr.Code, http.StatusOK)
	}

	if got := strings.TrimSpace(rr.Body.String()); got != `{"alerts":[]}` {
		t.Errorf("body = %s, want {\"alerts\":[]}", got)
	}
}

func TestAlertsHandler_DerivesFromStore(t *testing.T) {
	cfg := testConfig(t)

	records := []store.AnalysisRecord{
		{ID: "r1", CameraID: "cam-1", Analysis: "Calm street scene.", Timestamp: 100},
		{ID: "r2", CameraID: "cam-2", Analysis: "Suspicious person near the exit.", Timestamp: 200},
	}
	if err := cfg.Results.ReplaceAll(records); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)

	alertsHandler(cfg).ServeHTTP(rr, req)

	var resp AlertsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}

	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %d, want 1", len(resp.Alerts))
	}
	if resp.Alerts[0].ID != "analysis-r2" {
		t.Errorf("alert id = %s, want analysis-r2", resp.Alerts[0].ID)
	}
	if resp.Alerts[0].Severity != "high" {
		t.Errorf("severity = %s, want high", resp.Alerts[0].Severity)
	}
}

func TestListCamerasHandler(t *testing.T) {
	cfg := testConfig(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cameras", nil)

	listCamerasHandler(cfg).ServeHTTP(rr, req)

	var resp CamerasResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Cameras) != 9 {
		t.Errorf("cameras = %d, want 9", len(resp.Cameras))
	}
}

func TestAnalyzeAllHandler_Unconfigured(t *testing.T) {
	cfg := testConfig(t) // Analysis left nil

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)

	analyzeAllHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	body := decodeJSONBody(t, rr)
	if body["code"] != "CONFIG_ERROR" {
		t.Errorf("code = %v, want CONFIG_ERROR", body["code"])
	}
}

func TestAnalyzeCameraHandler_BadBody(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis = nil

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze-video", strings.NewReader("not json"))

	analyzeCameraHandler(cfg).ServeHTTP(rr, req)

	// Configuration is checked before the body. Unconfigured wins.
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestAnalyzeSourceHandler_MissingSource(t *testing.T) {
	cfg := testConfig(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/video", strings.NewReader(`{}`))

	analyzeSourceHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAnalyzeSourceHandler_UnconfiguredReportsErrorStatus(t *testing.T) {
	cfg := testConfig(t) // Analysis nil

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/video",
		strings.NewReader(`{"video_source":"clip.mp4"}`))

	analyzeSourceHandler(cfg).ServeHTTP(rr, req)

	// The ad-hoc endpoint reports failure in the body, not the code.
	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp AnalyzeSourceResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "error" {
		t.Errorf("status = %q, want error", resp.Status)
	}
	if resp.Error == "" {
		t.Error("error detail missing")
	}
}

type fakeScenes struct {
	scenes []scenedb.Scene
	err    error
}

func (f *fakeScenes) GetSceneIndex(ctx context.Context, videoID, indexID string) ([]scenedb.Scene, error) {
	return f.scenes, f.err
}

func TestSceneDetailsHandler(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenes = &fakeScenes{scenes: []scenedb.Scene{
		{ID: "s1", Start: 0, End: 4.5, Description: "platform, two figures"},
	}}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/scene-details",
		strings.NewReader(`{"video_id":"v1","index_id":"i1"}`))

	sceneDetailsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp SceneDetailsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "success" || len(resp.Scenes) != 1 {
		t.Errorf("status = %q scenes = %d", resp.Status, len(resp.Scenes))
	}
}

func TestSceneDetailsHandler_EmptyIndexIsList(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenes = &fakeScenes{}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/scene-details",
		strings.NewReader(`{"video_id":"v1","index_id":"i1"}`))

	sceneDetailsHandler(cfg).ServeHTTP(rr, req)

	if !strings.Contains(rr.Body.String(), `"scenes":[]`) {
		t.Errorf("body = %s, want scenes to be an empty list", rr.Body.String())
	}
}

func TestSceneDetailsHandler_MissingFields(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenes = &fakeScenes{}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/analyze/scene-details",
		strings.NewReader(`{"video_id":"v1"}`))

	sceneDetailsHandler(cfg).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRouter_EndToEndAlerts(t *testing.T) {
	cfg := testConfig(t)
	router := NewRouter(cfg)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/alerts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := resp.Header.Get("X-Request-ID"); got == "" {
		t.Error("X-Request-ID header missing")
	}

	data, _ := io.ReadAll(resp.Body)
	if strings.TrimSpace(string(data)) != `{"alerts":[]}` {
		t.Errorf("body = %s", data)
	}
}
