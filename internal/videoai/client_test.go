package videoai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHTTPClient_ListIndexes(t *testing.T) {
	var receivedKey string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		receivedKey = r.Header.Get("X-API-Key")

		json.NewEncoder(w).Encode(map[string]interface{}{
			"indexes": []Index{
				{ID: "idx-1", Name: "vigil-cctv"},
				{ID: "idx-2", Name: "other"},
			},
		})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	indexes, err := client.ListIndexes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedKey != "test-key" {
		t.Errorf("api key = %q, want %q", receivedKey, "test-key")
	}
	if len(indexes) != 2 {
		t.Fatalf("indexes count = %d, want 2", len(indexes))
	}
	if indexes[0].Name != "vigil-cctv" {
		t.Errorf("indexes[0].Name = %q, want %q", indexes[0].Name, "vigil-cctv")
	}
}

func TestHTTPClient_CreateIndex_SendsEngines(t *testing.T) {
	var received struct {
		Name    string   `json:"name"`
		Engines []Engine `json:"engines"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		json.NewEncoder(w).Encode(Index{ID: "idx-new", Name: received.Name})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	idx, err := client.CreateIndex(context.Background(), "vigil-cctv", DefaultEngines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.ID != "idx-new" {
		t.Errorf("index id = %q, want idx-new", idx.ID)
	}
	if len(received.Engines) != 2 {
		t.Fatalf("engines count = %d, want 2", len(received.Engines))
	}
	found := false
	for _, opt := range received.Engines[0].Options {
		if opt == "text_in_video" {
			found = true
		}
	}
	if !found {
		t.Error("first engine should declare text_in_video")
	}
}

func TestHTTPClient_CreateTask_MultipartUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if got := r.FormValue("index_id"); got != "idx-1" {
			t.Errorf("index_id = %q, want idx-1", got)
		}
		file, header, err := r.FormFile("video_file")
		if err != nil {
			t.Fatalf("missing video_file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "downtown.mp4" {
			t.Errorf("filename = %q, want downtown.mp4", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "fake video bytes" {
			t.Errorf("file content = %q", content)
		}

		json.NewEncoder(w).Encode(Task{ID: "task-1", Status: AssetStatusPending})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	f, err := os.CreateTemp(t.TempDir(), "downtown-*.mp4")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("fake video bytes")
	f.Seek(0, io.SeekStart)
	defer f.Close()

	task, err := client.CreateTask(context.Background(), "idx-1", UploadSource{
		Filename: "downtown.mp4",
		Reader:   f,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "task-1" {
		t.Errorf("task id = %q, want task-1", task.ID)
	}
}

func TestHTTPClient_CreateTask_URLSource(t *testing.T) {
	var received map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		json.NewEncoder(w).Encode(Task{ID: "task-2", Status: AssetStatusPending})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	task, err := client.CreateTask(context.Background(), "idx-1", UploadSource{
		URL: "https://example.com/feed.mp4",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != "task-2" {
		t.Errorf("task id = %q, want task-2", task.ID)
	}
	if received["video_url"] != "https://example.com/feed.mp4" {
		t.Errorf("video_url = %q", received["video_url"])
	}
}

func TestHTTPClient_AnalyzeStream_AccumulatesTextEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"event_type":"stream_start"}` + "\n"))
		w.Write([]byte(`{"event_type":"text_generation","text":"Two people "}` + "\n"))
		w.Write([]byte(`{"event_type":"text_generation","text":"fighting."}` + "\n"))
		w.Write([]byte(`{"event_type":"stream_end"}` + "\n"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	stream, err := client.AnalyzeStream(context.Background(), "asset-1", "watch for danger")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	var text string
	var events int
	for {
		ev, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		events++
		if ev.EventType == EventTextGeneration {
			text += ev.Text
		}
	}

	if events != 3 {
		t.Errorf("events before end = %d, want 3", events)
	}
	if text != "Two people fighting." {
		t.Errorf("accumulated text = %q, want %q", text, "Two people fighting.")
	}
}

func TestHTTPClient_Analyze_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"engine unavailable"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", testLogger())

	_, err := client.Analyze(context.Background(), "asset-1", "prompt")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error type = %T, want *RemoteError", err)
	}
	if !remoteErr.IsRetryable() {
		t.Error("expected 5xx remote error to be retryable")
	}
}

func TestRemoteError_Kinds(t *testing.T) {
	notFound := remoteErrorFromStatus("get asset", http.StatusNotFound, "no such asset")
	if notFound.Kind != KindNotFound {
		t.Errorf("kind = %q, want %q", notFound.Kind, KindNotFound)
	}
	if notFound.IsRetryable() {
		t.Error("expected 404 remote error to be permanent")
	}

	timeout := &RemoteError{Kind: KindTimeout, Op: "wait for indexing", Message: "deadline exceeded"}
	if !timeout.IsRetryable() {
		t.Error("expected timeout to be retryable")
	}
}
