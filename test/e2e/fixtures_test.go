package e2e

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/importer"
)

func TestGeoNamesTSV_ImportsEveryRecord(t *testing.T) {
	c := BuildCorpus()
	dir := t.TempDir()
	tsvPath := filepath.Join(dir, "US.txt")
	if err := os.WriteFile(tsvPath, GeoNamesTSV(c.Records), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := importer.New(zap.NewNop()).FromTSV(
		context.Background(), tsvPath, filepath.Join(dir, "postal.db"))
	if err != nil {
		t.Fatalf("FromTSV: %v", err)
	}
	if result.Imported != c.TotalRecords {
		t.Errorf("imported %d records, want %d", result.Imported, c.TotalRecords)
	}
	if result.Skipped != NoiseRowCount {
		t.Errorf("skipped %d rows, want %d", result.Skipped, NoiseRowCount)
	}
}

func TestGeoNamesZip_ImportsEveryRecord(t *testing.T) {
	c := BuildCorpus()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "US.zip")
	if err := os.WriteFile(zipPath, GeoNamesZip(c.Records), 0644); err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(dir, "postal.db")
	result, err := importer.New(zap.NewNop()).FromZip(context.Background(), zipPath, dbPath)
	if err != nil {
		t.Fatalf("FromZip: %v", err)
	}
	if result.Imported != c.TotalRecords {
		t.Errorf("imported %d records, want %d", result.Imported, c.TotalRecords)
	}
	if result.Skipped != NoiseRowCount {
		t.Errorf("skipped %d rows, want %d", result.Skipped, NoiseRowCount)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("dataset file missing after import: %v", err)
	}
}
