package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"volumeview/pkg/config"
)

func writeTestConfig(t *testing.T, dir string) (string, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Logging.File = filepath.Join(dir, "volumeview.log")
	cfg.Metrics.Textfile = filepath.Join(dir, "volumeview.prom")

	path := filepath.Join(dir, "volumeview.yaml")
	if err := config.SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return path, cfg
}

// TestRunReturnsLoadFailure checks that a failed load comes back as an
// error after the log file and metrics were written
func TestRunReturnsLoadFailure(t *testing.T) {
	dir := t.TempDir()
	configPath, cfg := writeTestConfig(t, dir)

	var out bytes.Buffer
	err := run([]string{"-config", configPath, "-input", filepath.Join(dir, "missing.dcm")}, &out)
	if err == nil {
		t.Fatal("Expected error for missing input, got nil")
	}
	if !strings.Contains(err.Error(), "failed to load volume") {
		t.Errorf("Expected load failure, got %v", err)
	}

	logged, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(logged), "failed to load volume") {
		t.Errorf("Expected log file to record the failure, got %q", logged)
	}
	if _, err := os.Stat(cfg.Metrics.Textfile); err != nil {
		t.Errorf("Expected metrics textfile to be written: %v", err)
	}
}

func TestRunWithoutInput(t *testing.T) {
	configPath, _ := writeTestConfig(t, t.TempDir())
	if err := run([]string{"-config", configPath}, &bytes.Buffer{}); !errors.Is(err, errUsage) {
		t.Errorf("Expected errUsage, got %v", err)
	}
}

func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.yaml")

	var out bytes.Buffer
	if err := run([]string{"-init-config", "-config", path}, &out); err != nil {
		t.Fatalf("Failed to init config: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("Expected confirmation naming %s, got %q", path, out.String())
	}
	if _, err := config.LoadConfig(path); err != nil {
		t.Errorf("Expected generated config to load, got %v", err)
	}
}
