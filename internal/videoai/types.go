package videoai

import "io"

// Engine declares one analysis engine an index is created with.
type Engine struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// DefaultEngines is the fixed capability set every index is created with:
// a search engine covering visual, conversation, text-in-video and logo
// detection, plus a generative engine for free-text analysis.
var DefaultEngines = []Engine{
	{Name: "lookout-2.7", Options: []string{"visual", "conversation", "text_in_video", "logo"}},
	{Name: "narrator-1.2", Options: []string{"visual", "conversation"}},
}

// Index is a named remote collection of assets sharing an engine set.
type Index struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Engines []Engine `json:"engines"`
}

// Asset statuses as reported by the remote service. An asset is immutable
// once it reaches a terminal status.
const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// Asset is a unit of video content known to the remote service.
type Asset struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
}

// Task is a remote indexing job handle. AssetID is populated once the
// task reaches the ready status.
type Task struct {
	ID      string `json:"id"`
	AssetID string `json:"asset_id,omitempty"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// UploadSource describes where task video content comes from: a local
// file (Filename + Reader) or a remote URL. Exactly one is set.
type UploadSource struct {
	Filename string
	Reader   io.Reader
	URL      string
}

// Streaming analysis event types.
const (
	EventTextGeneration = "text_generation"
	EventStreamEnd      = "stream_end"
)

// AnalysisEvent is one element of a streaming analysis response.
type AnalysisEvent struct {
	EventType string `json:"event_type"`
	Text      string `json:"text,omitempty"`
}
