// Package config provides configuration loading and management for volumeview.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ingestion controls how source files are decoded and assembled
type Ingestion struct {
	// Workers is the number of files decoded concurrently
	Workers int `yaml:"workers"`

	// ReplicateDepth is how many times a lone 2D slice is repeated along
	// depth so that reslicing has something to index
	ReplicateDepth int `yaml:"replicateDepth"`

	// Extensions lists the file extensions picked up when opening a folder
	Extensions []string `yaml:"extensions"`

	// ApplyRescale applies modality rescale slope/intercept while decoding
	ApplyRescale bool `yaml:"applyRescale"`
}

// View holds the initial view settings of a new document
type View struct {
	// SecondaryAxis is "sagittal" or "coronal"
	SecondaryAxis string `yaml:"secondaryAxis"`

	// WindowWidth and WindowLevel are used until a volume is loaded
	WindowWidth int `yaml:"windowWidth"`
	WindowLevel int `yaml:"windowLevel"`

	// SectionCacheSize is the number of raw sections kept per document
	SectionCacheSize int `yaml:"sectionCacheSize"`
}

// Logging controls log output
type Logging struct {
	// Level is a zerolog level name (debug, info, warn, error)
	Level string `yaml:"level"`

	// File is a path for a rotating log file; empty logs to stderr
	File string `yaml:"file"`

	// MaxSize is the size in megabytes before the log file is rotated
	MaxSize int `yaml:"maxSize"`

	// MaxAge is the number of days rotated files are kept
	MaxAge int `yaml:"maxAge"`
}

// Metrics controls metrics export
type Metrics struct {
	// Textfile is a path the CLI writes Prometheus metrics to on exit
	Textfile string `yaml:"textfile"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	Ingestion Ingestion `yaml:"ingestion"`
	View      View      `yaml:"view"`
	Logging   Logging   `yaml:"logging"`
	Metrics   Metrics   `yaml:"metrics"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Ingestion.Workers = runtime.NumCPU()
	cfg.Ingestion.ReplicateDepth = 10
	cfg.Ingestion.Extensions = []string{".dcm"}
	cfg.Ingestion.ApplyRescale = false

	cfg.View.SecondaryAxis = "sagittal"
	cfg.View.WindowWidth = 400
	cfg.View.WindowLevel = 40
	cfg.View.SectionCacheSize = 64

	cfg.Logging.Level = "info"
	cfg.Logging.MaxSize = 100
	cfg.Logging.MaxAge = 28

	return cfg
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.Ingestion.Workers < 1 {
		return fmt.Errorf("ingestion.workers must be at least 1, got %d", c.Ingestion.Workers)
	}
	if c.Ingestion.ReplicateDepth < 1 {
		return fmt.Errorf("ingestion.replicateDepth must be at least 1, got %d", c.Ingestion.ReplicateDepth)
	}
	if len(c.Ingestion.Extensions) == 0 {
		return fmt.Errorf("ingestion.extensions must not be empty")
	}
	switch strings.ToLower(c.View.SecondaryAxis) {
	case "sagittal", "coronal":
	default:
		return fmt.Errorf("view.secondaryAxis must be sagittal or coronal, got %q", c.View.SecondaryAxis)
	}
	if c.View.WindowWidth < 1 {
		return fmt.Errorf("view.windowWidth must be positive, got %d", c.View.WindowWidth)
	}
	if c.View.SectionCacheSize < 0 {
		return fmt.Errorf("view.sectionCacheSize must not be negative, got %d", c.View.SectionCacheSize)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
