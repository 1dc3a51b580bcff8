package config

import (
	"os"
	"testing"
	"time"
)

func TestPollInterval_Default(t *testing.T) {
	os.Unsetenv(EnvPollInterval)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval() != DefaultPollInterval {
		t.Errorf("default PollInterval = %v, want %v", cfg.PollInterval(), DefaultPollInterval)
	}
}

func TestPollInterval_FromEnv(t *testing.T) {
	os.Setenv(EnvPollInterval, "5s")
	defer os.Unsetenv(EnvPollInterval)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", cfg.PollInterval())
	}
}

func TestPollInterval_Invalid(t *testing.T) {
	os.Setenv(EnvPollInterval, "soon")
	defer os.Unsetenv(EnvPollInterval)

	if _, err := New(); err == nil {
		t.Error("New() should reject an unparseable poll interval")
	}
}

func TestPort_Invalid(t *testing.T) {
	os.Setenv(EnvPort, "99999")
	defer os.Unsetenv(EnvPort)

	if _, err := New(); err == nil {
		t.Error("New() should reject an out-of-range port")
	}
}

func TestVideoAIKey_MissingIsNotFatal(t *testing.T) {
	os.Unsetenv(EnvVideoAIKey)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VideoAIKey() != "" {
		t.Errorf("VideoAIKey = %q, want empty", cfg.VideoAIKey())
	}
}

func TestResultsPath_Default(t *testing.T) {
	os.Setenv(EnvDataDir, "/tmp/vigil-test")
	defer os.Unsetenv(EnvDataDir)
	os.Unsetenv(EnvResultsPath)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ResultsPath() != "/tmp/vigil-test/analysis_results.json" {
		t.Errorf("ResultsPath = %q, want %q", cfg.ResultsPath(), "/tmp/vigil-test/analysis_results.json")
	}
}
