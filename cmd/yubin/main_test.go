package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after place name are moved first",
			args:     []string{"new", "york", "-limit", "3"},
			expected: []string{"-limit", "3", "new", "york"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "3", "seattle"},
			expected: []string{"-limit", "3", "seattle"},
		},
		{
			name:     "place name only returns unchanged",
			args:     []string{"seattle"},
			expected: []string{"seattle"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildPlaceName(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"seattle"}, "seattle"},
		{"multiple words", []string{"new", "york"}, "new york"},
		{"quoted phrase", []string{"new york"}, "new york"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildPlaceName(tt.args)
			if got != tt.expected {
				t.Errorf("buildPlaceName(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	v, err := parseCoordinate("47.6062", "latitude")
	if err != nil {
		t.Fatal(err)
	}
	if v != 47.6062 {
		t.Errorf("got %f", v)
	}

	v, err = parseCoordinate("-122.3321", "longitude")
	if err != nil {
		t.Fatal(err)
	}
	if v != -122.3321 {
		t.Errorf("got %f", v)
	}

	if _, err := parseCoordinate("north", "latitude"); err == nil {
		t.Error("expected an error for a non-numeric coordinate")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := parseFormat("json"); err != nil || f != "json" {
		t.Errorf("parseFormat(json) = %v, %v", f, err)
	}
	if f, err := parseFormat("text"); err != nil || f != "text" {
		t.Errorf("parseFormat(text) = %v, %v", f, err)
	}
	if _, err := parseFormat("yaml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir()
	// is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadConfig_fallsBackToDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("system config exists; defaults not exercised")
	}

	// An empty cwd has no config.yaml.
	dir := t.TempDir()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path should be empty for built-in defaults, got %s", resolved)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
}

func TestLoadConfig_explicitMissingPathFails(t *testing.T) {
	_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected an error for an explicit missing config path")
	}
}
