package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/config"
	"github.com/meridianlabs/yubin/internal/models"
)

// EnvDatasetPath overrides the dataset location when it points at an
// existing file.
const EnvDatasetPath = "YUBIN_DB_PATH"

var (
	downloadMu sync.Mutex
	httpClient = &http.Client{Timeout: 30 * time.Second}
)

// EnsureDataset resolves the dataset file, fetching it when permitted.
// Resolution order: explicit configured path, well-known location,
// YUBIN_DB_PATH, then download into the well-known location. The download
// happens at most once per process and is never retried internally.
func EnsureDataset(ctx context.Context, cfg *config.Config, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Dataset.Path != "" {
		if fileExists(cfg.Dataset.Path) {
			return cfg.Dataset.Path, nil
		}
		logger.Warn("configured dataset path does not exist", zap.String("path", cfg.Dataset.Path))
	}

	wellKnown := filepath.Join(cfg.Dataset.Dir, cfg.Dataset.Filename)
	if fileExists(wellKnown) {
		return wellKnown, nil
	}

	if envPath := os.Getenv(EnvDatasetPath); envPath != "" {
		if fileExists(envPath) {
			return envPath, nil
		}
		logger.Warn("dataset path from environment does not exist", zap.String("path", envPath))
	}

	if !cfg.Dataset.AutoFetchOrDefault() {
		return "", datasetUnavailable(wellKnown, cfg.Dataset.URL, nil)
	}

	if err := downloadDataset(ctx, cfg.Dataset.URL, wellKnown, cfg.Dataset.Checksum, logger); err != nil {
		return "", datasetUnavailable(wellKnown, cfg.Dataset.URL, err)
	}
	return wellKnown, nil
}

func datasetUnavailable(wellKnown, url string, err error) error {
	remediation := fmt.Sprintf(
		"postal dataset not found: set %s to an existing dataset file, download %s to %s, or build one with 'yubin import'",
		EnvDatasetPath, url, wellKnown,
	)
	return models.DatasetUnavailableErr("storage.EnsureDataset", remediation, err)
}

// downloadDataset streams the dataset into dest. The body is written to a
// temp file in the same directory and renamed on success, so a failed or
// cancelled download never leaves a partial dataset at dest.
func downloadDataset(ctx context.Context, url, dest, checksum string, logger *zap.Logger) error {
	downloadMu.Lock()
	defer downloadMu.Unlock()

	// Another caller may have finished the download while we waited.
	if fileExists(dest) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}

	logger.Info("downloading dataset", zap.String("url", url), zap.String("dest", dest))
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dataset fetch returned status %d", resp.StatusCode)
	}

	tmpPath := filepath.Join(filepath.Dir(dest), fmt.Sprintf(".%s.%s.partial", filepath.Base(dest), uuid.New().String()))
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, hash), resp.Body)
	if err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close dataset file: %w", err)
	}

	if checksum != "" {
		if got := hex.EncodeToString(hash.Sum(nil)); got != checksum {
			return fmt.Errorf("dataset checksum mismatch: got %s, want %s", got, checksum)
		}
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move dataset into place: %w", err)
	}
	success = true

	logger.Info("dataset downloaded",
		zap.Int64("bytes", written),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
