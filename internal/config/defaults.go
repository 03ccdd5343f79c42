package config

import (
	"os"
	"path/filepath"
)

// DefaultDatasetURL is the release artifact fetched when no local dataset exists.
const DefaultDatasetURL = "https://data.meridianlabs.dev/yubin/postal_census_complete.db"

// Default returns the built-in configuration used when no config file
// exists anywhere. The dataset directory is expanded against the home
// directory the way Load would expand it.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if home, err := os.UserHomeDir(); err == nil {
		cfg.Dataset.Dir = filepath.Join(home, cfg.Dataset.Dir)
	}
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Dataset.Dir == "" {
		// bare relative, expanded against the home directory
		cfg.Dataset.Dir = ".yubin"
	}
	if cfg.Dataset.Filename == "" {
		cfg.Dataset.Filename = "postal_census_complete.db"
	}
	if cfg.Dataset.URL == "" {
		cfg.Dataset.URL = DefaultDatasetURL
	}
	if cfg.Database.MmapSize == 0 {
		cfg.Database.MmapSize = 268435456 // 256MB
	}
}
