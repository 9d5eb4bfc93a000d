package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Ingestion.ReplicateDepth != 10 {
		t.Errorf("Expected replicate depth 10, got %d", cfg.Ingestion.ReplicateDepth)
	}
	if cfg.View.SecondaryAxis != "sagittal" {
		t.Errorf("Expected sagittal secondary axis, got %q", cfg.View.SecondaryAxis)
	}
	if cfg.View.WindowWidth != 400 || cfg.View.WindowLevel != 40 {
		t.Errorf("Expected window 400/40, got %d/%d", cfg.View.WindowWidth, cfg.View.WindowLevel)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "volumeview.yaml")

	cfg := DefaultConfig()
	cfg.Ingestion.Workers = 3
	cfg.View.SecondaryAxis = "coronal"
	cfg.Logging.File = "/var/log/volumeview.log"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Ingestion.Workers != 3 {
		t.Errorf("Expected 3 workers, got %d", loaded.Ingestion.Workers)
	}
	if loaded.View.SecondaryAxis != "coronal" {
		t.Errorf("Expected coronal, got %q", loaded.View.SecondaryAxis)
	}
	if loaded.Logging.File != cfg.Logging.File {
		t.Errorf("Expected log file %q, got %q", cfg.Logging.File, loaded.Logging.File)
	}
}

func TestLoadConfigPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("view:\n  windowWidth: 1500\n  windowLevel: -600\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.View.WindowWidth != 1500 || cfg.View.WindowLevel != -600 {
		t.Errorf("Expected window 1500/-600, got %d/%d", cfg.View.WindowWidth, cfg.View.WindowLevel)
	}
	// Untouched sections keep their defaults
	if cfg.Ingestion.ReplicateDepth != 10 {
		t.Errorf("Expected default replicate depth, got %d", cfg.Ingestion.ReplicateDepth)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("view:\n  secondaryAxis: oblique\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for oblique secondary axis, got nil")
	}

	if err := os.WriteFile(path, []byte("ingestion: [not, a, map]\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected parse error, got nil")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected config file to exist: %v", err)
	}
}
