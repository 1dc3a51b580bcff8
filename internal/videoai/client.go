package videoai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// Client is the boundary to the video-intelligence service. Every remote
// response is decoded into an explicit result type; internal code never
// inspects raw JSON.
type Client interface {
	ListIndexes(ctx context.Context) ([]Index, error)
	CreateIndex(ctx context.Context, name string, engines []Engine) (*Index, error)
	ListAssets(ctx context.Context, indexID string) ([]Asset, error)
	GetAsset(ctx context.Context, indexID, assetID string) (*Asset, error)
	CreateTask(ctx context.Context, indexID string, source UploadSource) (*Task, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	Analyze(ctx context.Context, assetID, prompt string) (string, error)
	AnalyzeStream(ctx context.Context, assetID, prompt string) (*EventStream, error)
}

// HTTPClient talks to the video-intelligence REST API.
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
			// Streaming analysis holds the connection open for the whole
			// generation; the per-request timeout stays generous.
			Timeout: 5 * time.Minute,
		},
		logger: logger,
	}
}

func (c *HTTPClient) ListIndexes(ctx context.Context) ([]Index, error) {
	var wrapper struct {
		Indexes []Index `json:"indexes"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/indexes", nil, &wrapper, "list indexes"); err != nil {
		return nil, err
	}
	return wrapper.Indexes, nil
}

func (c *HTTPClient) CreateIndex(ctx context.Context, name string, engines []Engine) (*Index, error) {
	body := map[string]interface{}{"name": name, "engines": engines}
	var result Index
	if err := c.doJSON(ctx, http.MethodPost, "/indexes", body, &result, "create index"); err != nil {
		return nil, err
	}
	c.logger.Info("index created", "index_id", result.ID, "name", name)
	return &result, nil
}

func (c *HTTPClient) ListAssets(ctx context.Context, indexID string) ([]Asset, error) {
	var wrapper struct {
		Assets []Asset `json:"assets"`
	}
	path := fmt.Sprintf("/indexes/%s/assets", indexID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &wrapper, "list assets"); err != nil {
		return nil, err
	}
	return wrapper.Assets, nil
}

func (c *HTTPClient) GetAsset(ctx context.Context, indexID, assetID string) (*Asset, error) {
	var result Asset
	path := fmt.Sprintf("/indexes/%s/assets/%s", indexID, assetID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &result, "get asset"); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateTask submits video content for indexing. Local files are sent as
// a multipart upload, URLs as a JSON body; the service answers with a job
// handle either way.
func (c *HTTPClient) CreateTask(ctx context.Context, indexID string, source UploadSource) (*Task, error) {
	if source.URL != "" {
		body := map[string]string{"index_id": indexID, "video_url": source.URL}
		var result Task
		if err := c.doJSON(ctx, http.MethodPost, "/tasks", body, &result, "create task"); err != nil {
			return nil, err
		}
		return &result, nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("index_id", indexID); err != nil {
		return nil, fmt.Errorf("write multipart field: %w", err)
	}
	part, err := mw.CreateFormFile("video_file", source.Filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := io.Copy(part, source.Reader); err != nil {
		return nil, fmt.Errorf("copy video content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", c.apiKey)

	c.logger.Info("uploading video for indexing",
		"index_id", indexID,
		"filename", source.Filename,
		"body_bytes", buf.Len(),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: KindRemote, Op: "create task", Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, remoteErrorFromStatus("create task", resp.StatusCode, string(respBody))
	}

	var result Task
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal task response: %w", err)
	}
	return &result, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var result Task
	if err := c.doJSON(ctx, http.MethodGet, "/tasks/"+taskID, nil, &result, "get task"); err != nil {
		return nil, err
	}
	return &result, nil
}

// Analyze runs batch analysis: one call, one complete result.
func (c *HTTPClient) Analyze(ctx context.Context, assetID, prompt string) (string, error) {
	body := map[string]interface{}{"asset_id": assetID, "prompt": prompt, "stream": false}
	var result struct {
		Data string `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/analyze", body, &result, "analyze"); err != nil {
		return "", err
	}
	return result.Data, nil
}

// AnalyzeStream starts streaming analysis. The caller must drain the
// returned stream to completion and close it.
func (c *HTTPClient) AnalyzeStream(ctx context.Context, assetID, prompt string) (*EventStream, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"asset_id": assetID, "prompt": prompt, "stream": true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Kind: KindRemote, Op: "analyze stream", Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, remoteErrorFromStatus("analyze stream", resp.StatusCode, string(respBody))
	}

	return NewEventStream(resp.Body), nil
}

// doJSON performs a JSON request/response cycle against the API.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body, out interface{}, op string) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Kind: KindRemote, Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return remoteErrorFromStatus(op, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal %s response: %w", op, err)
		}
	}
	return nil
}

// EventStream is a lazy sequence of analysis events decoded from an
// NDJSON response body.
type EventStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func NewEventStream(body io.ReadCloser) *EventStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &EventStream{body: body, scanner: scanner}
}

// Next returns the next event, or io.EOF once the stream ends (either a
// stream_end event or the connection closing).
func (s *EventStream) Next() (*AnalysisEvent, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev AnalysisEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("decode stream event: %w", err)
		}
		if ev.EventType == EventStreamEnd {
			return nil, io.EOF
		}
		return &ev, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, &RemoteError{Kind: KindRemote, Op: "analyze stream", Message: err.Error()}
	}
	return nil, io.EOF
}

func (s *EventStream) Close() error {
	return s.body.Close()
}
