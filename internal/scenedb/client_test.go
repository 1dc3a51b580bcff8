package scenedb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_GetSceneIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos/vid-1/scene-indexes/si-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("X-API-Key") != "scene-key" {
			t.Errorf("api key = %q, want scene-key", r.Header.Get("X-API-Key"))
		}
		w.Write([]byte(`{"scenes":[{"id":"s1","start":0,"end":4.5,"description":"platform crowd"},{"id":"s2","start":4.5,"end":9,"description":"train arriving"}]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "scene-key", testLogger())

	scenes, err := client.GetSceneIndex(context.Background(), "vid-1", "si-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("scenes count = %d, want 2", len(scenes))
	}
	if scenes[1].Description != "train arriving" {
		t.Errorf("scenes[1].Description = %q", scenes[1].Description)
	}
}

func TestHTTPClient_GetSceneIndex_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "scene-key", testLogger())

	_, err := client.GetSceneIndex(context.Background(), "vid-1", "si-9")
	if err == nil {
		t.Fatal("expected error for 502 response")
	}

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error type = %T, want *ServiceError", err)
	}
	if svcErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", svcErr.StatusCode)
	}
}
