package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindConfig_Explicit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 9999\n"), 0600)

	got, err := FindConfig(path)
	if err != nil {
		t.Fatalf("FindConfig(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("FindConfig(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfig_ExplicitMissing(t *testing.T) {
	_, err := FindConfig("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("FindConfig with missing explicit path should error")
	}
}

func TestFindConfig_CWD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("listen:\n  port: 8080\n"), 0600)

	orig, _ := os.Getwd()
	os.Chdir(dir)
	defer os.Chdir(orig)

	got, err := FindConfig("")
	if err != nil {
		t.Fatalf("FindConfig(\"\") error: %v", err)
	}
	if got != "config.yaml" {
		t.Errorf("FindConfig(\"\") = %q, want %q", got, "config.yaml")
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("backend:\n  api_key: ${VANTAGE_TEST_KEY}\n"), 0600)
	os.Setenv("VANTAGE_TEST_KEY", "secret123")
	defer os.Unsetenv("VANTAGE_TEST_KEY")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Backend.APIKey != "secret123" {
		t.Errorf("api_key = %q, want %q", cfg.Backend.APIKey, "secret123")
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("backend:\n  url: https://vectors.example.com\n"), 0600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Listen.Port != 8084 {
		t.Errorf("listen port = %d, want 8084", cfg.Listen.Port)
	}
	if cfg.BrandName != "Vantage" {
		t.Errorf("brand name = %q, want %q", cfg.BrandName, "Vantage")
	}
	if got := cfg.Refresh.Interval(); got != 30*time.Second {
		t.Errorf("refresh interval = %v, want 30s", got)
	}
}

func TestRefreshInterval_Override(t *testing.T) {
	r := RefreshConfig{IntervalSec: 120}
	if got := r.Interval(); got != 2*time.Minute {
		t.Errorf("Interval() = %v, want 2m", got)
	}
}

func TestRefreshInterval_ZeroFallsBack(t *testing.T) {
	r := RefreshConfig{}
	if got := r.Interval(); got != 30*time.Second {
		t.Errorf("Interval() = %v, want 30s default", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should require backend.url")
	}

	cfg.Backend.URL = "http://localhost:8000"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log level")
	}
	cfg.LogLevel = "debug"

	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject unknown log format")
	}
}
