package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
dataset:
  path: "/var/lib/yubin/postal.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Dataset.Path != "/var/lib/yubin/postal.db" {
		t.Errorf("dataset path = %s", cfg.Dataset.Path)
	}
	if cfg.Dataset.Filename != "postal_census_complete.db" {
		t.Errorf("default filename: got %s", cfg.Dataset.Filename)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
dataset:
  path: "./data/postal.db"
  dir: "./data"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	wantPath := filepath.Join(dir, "data", "postal.db")
	if cfg.Dataset.Path != wantPath {
		t.Errorf("dataset path = %s, want %s", cfg.Dataset.Path, wantPath)
	}
	wantDir := filepath.Join(dir, "data")
	if cfg.Dataset.Dir != wantDir {
		t.Errorf("dataset dir = %s, want %s", cfg.Dataset.Dir, wantDir)
	}
}

func TestLoad_bareRelativeDirExpandsToHome(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	want := filepath.Join(home, ".yubin")
	if cfg.Dataset.Dir != want {
		t.Errorf("dataset dir = %s, want %s", cfg.Dataset.Dir, want)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Dataset.Dir != ".yubin" {
		t.Errorf("default dataset dir: got %s", cfg.Dataset.Dir)
	}
	if cfg.Dataset.Filename != "postal_census_complete.db" {
		t.Errorf("default filename: got %s", cfg.Dataset.Filename)
	}
	if cfg.Dataset.URL != DefaultDatasetURL {
		t.Errorf("default URL: got %s", cfg.Dataset.URL)
	}
	if cfg.Database.MmapSize != 268435456 {
		t.Errorf("default mmap size: got %d", cfg.Database.MmapSize)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if !filepath.IsAbs(cfg.Dataset.Dir) {
		t.Errorf("dataset dir should be absolute, got %s", cfg.Dataset.Dir)
	}
	if filepath.Base(cfg.Dataset.Dir) != ".yubin" {
		t.Errorf("dataset dir should end in .yubin, got %s", cfg.Dataset.Dir)
	}
}

func TestDatasetConfig_AutoFetchOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		d := &DatasetConfig{}
		if !d.AutoFetchOrDefault() {
			t.Error("AutoFetchOrDefault() = false, want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		d := &DatasetConfig{AutoFetch: &f}
		if d.AutoFetchOrDefault() {
			t.Error("AutoFetchOrDefault() = true, want false")
		}
	})
}

func TestSpatialConfig_EnabledOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		s := &SpatialConfig{}
		if !s.EnabledOrDefault() {
			t.Error("EnabledOrDefault() = false, want true")
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		s := &SpatialConfig{Enabled: &f}
		if s.EnabledOrDefault() {
			t.Error("EnabledOrDefault() = true, want false")
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Dataset: DatasetConfig{Path: "/tmp/postal.db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Dataset.Path != "/tmp/postal.db" {
		t.Errorf("loaded dataset path: got %s", loaded.Dataset.Path)
	}
}
