// Package config provides configuration loading and structs for the Yubin server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Dataset  DatasetConfig  `yaml:"dataset"`
	Database DatabaseConfig `yaml:"database"`
	Spatial  SpatialConfig  `yaml:"spatial"`
	Suggest  SuggestConfig  `yaml:"suggest"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatasetConfig controls where the reference dataset lives and how it is
// fetched when absent. Path overrides Dir/Filename when set.
type DatasetConfig struct {
	Path      string `yaml:"path"`
	Dir       string `yaml:"dir"`
	Filename  string `yaml:"filename"`
	URL       string `yaml:"url"`
	AutoFetch *bool  `yaml:"auto_fetch"`
	Checksum  string `yaml:"checksum"`
	Watch     *bool  `yaml:"watch"`
}

// AutoFetchOrDefault returns whether a missing dataset may be downloaded;
// defaults to true when unset.
func (d *DatasetConfig) AutoFetchOrDefault() bool {
	if d.AutoFetch != nil {
		return *d.AutoFetch
	}
	return true
}

// WatchOrDefault returns whether the dataset file is watched for
// replacement; defaults to true when unset.
func (d *DatasetConfig) WatchOrDefault() bool {
	if d.Watch != nil {
		return *d.Watch
	}
	return true
}

// DatabaseConfig holds storage engine tuning.
type DatabaseConfig struct {
	MmapSize int64 `yaml:"mmap_size"`
}

// SpatialConfig controls the in-memory spatial index.
type SpatialConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether the spatial index is built; defaults to true.
func (s *SpatialConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// SuggestConfig controls the place name suggestion index.
type SuggestConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// EnabledOrDefault returns whether the suggest index is built; defaults to true.
func (s *SuggestConfig) EnabledOrDefault() bool {
	if s.Enabled != nil {
		return *s.Enabled
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	if cfg.Dataset.Path != "" {
		cfg.Dataset.Path = expandPath(cfg.Dataset.Path, configDir)
	}
	cfg.Dataset.Dir = expandPath(cfg.Dataset.Dir, configDir)

	return &cfg, nil
}

// Save writes the config to path. Used for persisting dataset location changes.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
