// Package config provides configuration management for the Vigil backend.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort         = 8787
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".vigil"
	DefaultResultsFile  = "analysis_results.json"
	DefaultIndexName    = "vigil-cctv"
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 10 * time.Minute
	DefaultNATSSubject  = "vigil.alerts"
	DefaultCORSOrigins  = "*"
	DefaultVideoAIURL   = "https://api.videointel.example.com/v1"
	DefaultSceneDBURL   = "https://api.scenedb.example.com/v1"
	DefaultSweepPrompt  = "Analyze this surveillance footage and report any threats, violence, fire, or suspicious activity. Describe what you see and flag anything that requires attention."
	DefaultStreamPrompt = "Monitor for violent or dangerous behavior. Detect: physical altercations, fighting, weapons being displayed or used, aggressive confrontations, people running in panic, injured persons on ground, threatening gestures, or any signs of assault."

	// Environment variable names
	EnvPort         = "VIGIL_PORT"
	EnvLogLevel     = "VIGIL_LOG_LEVEL"
	EnvDataDir      = "VIGIL_DATA_DIR"
	EnvVideoAIKey   = "VIGIL_API_KEY"
	EnvVideoAIURL   = "VIGIL_API_BASE_URL"
	EnvSceneDBKey   = "SCENEDB_API_KEY"
	EnvSceneDBURL   = "SCENEDB_BASE_URL"
	EnvIndexName    = "VIGIL_INDEX_NAME"
	EnvVideoDir     = "VIGIL_VIDEO_DIR"
	EnvResultsPath  = "VIGIL_RESULTS_PATH"
	EnvCamerasPath  = "VIGIL_CAMERAS_PATH"
	EnvPollInterval = "VIGIL_POLL_INTERVAL"
	EnvPollTimeout  = "VIGIL_POLL_TIMEOUT"
	EnvSweepPrompt  = "VIGIL_SWEEP_PROMPT"
	EnvStreamPrompt = "VIGIL_STREAM_PROMPT"
	EnvNATSURL      = "VIGIL_NATS_URL"
	EnvNATSSubject  = "VIGIL_NATS_SUBJECT"
	EnvCORSOrigins  = "VIGIL_CORS_ORIGINS"
)

// ConfigError reports configuration that is missing at the point of use.
// Startup tolerates absent API keys; the endpoints that depend on them
// surface this error instead of the process refusing to boot.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Key)
}

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	VideoAIKey() string
	VideoAIBaseURL() string
	SceneDBKey() string
	SceneDBBaseURL() string
	IndexName() string
	VideoDir() string
	ResultsPath() string
	CamerasPath() string
	PollInterval() time.Duration
	PollTimeout() time.Duration
	SweepPrompt() string
	StreamPrompt() string
	NATSURL() string
	NATSSubject() string
	CORSOrigins() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	videoAIKey   string
	videoAIURL   string
	sceneDBKey   string
	sceneDBURL   string
	indexName    string
	videoDir     string
	resultsPath  string
	camerasPath  string
	pollInterval time.Duration
	pollTimeout  time.Duration
	sweepPrompt  string
	streamPrompt string
	natsURL      string
	natsSubject  string
	corsOrigins  string
}

// New creates a new EnvConfig with defaults and environment variable overrides.
// Malformed values fail here; missing API keys do not (see ConfigError).
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		videoAIURL:   DefaultVideoAIURL,
		sceneDBURL:   DefaultSceneDBURL,
		indexName:    DefaultIndexName,
		pollInterval: DefaultPollInterval,
		pollTimeout:  DefaultPollTimeout,
		sweepPrompt:  DefaultSweepPrompt,
		streamPrompt: DefaultStreamPrompt,
		natsSubject:  DefaultNATSSubject,
		corsOrigins:  DefaultCORSOrigins,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.videoAIKey = os.Getenv(EnvVideoAIKey)
	cfg.sceneDBKey = os.Getenv(EnvSceneDBKey)

	if u := os.Getenv(EnvVideoAIURL); u != "" {
		cfg.videoAIURL = u
	}
	if u := os.Getenv(EnvSceneDBURL); u != "" {
		cfg.sceneDBURL = u
	}
	if n := os.Getenv(EnvIndexName); n != "" {
		cfg.indexName = n
	}

	cfg.videoDir = os.Getenv(EnvVideoDir)
	cfg.resultsPath = os.Getenv(EnvResultsPath)
	cfg.camerasPath = os.Getenv(EnvCamerasPath)

	if iv := os.Getenv(EnvPollInterval); iv != "" {
		d, err := time.ParseDuration(iv)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollInterval, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvPollInterval)
		}
		cfg.pollInterval = d
	}

	if pt := os.Getenv(EnvPollTimeout); pt != "" {
		d, err := time.ParseDuration(pt)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollTimeout, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", EnvPollTimeout)
		}
		cfg.pollTimeout = d
	}

	if p := os.Getenv(EnvSweepPrompt); p != "" {
		cfg.sweepPrompt = p
	}
	if p := os.Getenv(EnvStreamPrompt); p != "" {
		cfg.streamPrompt = p
	}

	cfg.natsURL = os.Getenv(EnvNATSURL)
	if s := os.Getenv(EnvNATSSubject); s != "" {
		cfg.natsSubject = s
	}
	if o := os.Getenv(EnvCORSOrigins); o != "" {
		cfg.corsOrigins = o
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// VideoAIKey returns the API key for the video-intelligence service
func (c *EnvConfig) VideoAIKey() string {
	return c.videoAIKey
}

func (c *EnvConfig) VideoAIBaseURL() string {
	return c.videoAIURL
}

// SceneDBKey returns the API key for the scene storage service
func (c *EnvConfig) SceneDBKey() string {
	return c.sceneDBKey
}

func (c *EnvConfig) SceneDBBaseURL() string {
	return c.sceneDBURL
}

// IndexName returns the logical name of the remote index
func (c *EnvConfig) IndexName() string {
	return c.indexName
}

// VideoDir returns the base directory for local source video files
func (c *EnvConfig) VideoDir() string {
	if c.videoDir != "" {
		return c.videoDir
	}
	return filepath.Join(c.dataDir, "videos")
}

// ResultsPath returns the full path to the analysis results document
func (c *EnvConfig) ResultsPath() string {
	if c.resultsPath != "" {
		return c.resultsPath
	}
	return filepath.Join(c.dataDir, DefaultResultsFile)
}

// CamerasPath returns the optional camera catalog seed file path
func (c *EnvConfig) CamerasPath() string {
	return c.camerasPath
}

// PollInterval returns the delay between indexing status checks
func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// PollTimeout returns the maximum total wait for a remote indexing job
func (c *EnvConfig) PollTimeout() time.Duration {
	return c.pollTimeout
}

func (c *EnvConfig) SweepPrompt() string {
	return c.sweepPrompt
}

func (c *EnvConfig) StreamPrompt() string {
	return c.streamPrompt
}

func (c *EnvConfig) NATSURL() string {
	return c.natsURL
}

func (c *EnvConfig) NATSSubject() string {
	return c.natsSubject
}

func (c *EnvConfig) CORSOrigins() string {
	return c.corsOrigins
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
