// Package importer builds the SQLite postal dataset from the GeoNames
// postal code export (US.zip or the raw tab-separated US.txt inside it).
package importer

import (
	"archive/zip"
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// The GeoNames postal export carries 12 tab-separated fields per line:
// country code, postal code, place name, admin1 name, admin1 code,
// admin2 name, admin2 code, admin3 name, admin3 code, lat, lng, accuracy.
const geonamesFields = 12

const createTableSQL = `
CREATE TABLE IF NOT EXISTS postal_codes (
	zcta_code TEXT PRIMARY KEY,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	state TEXT NOT NULL,
	land_area_sqm REAL NOT NULL DEFAULT 0,
	water_area_sqm REAL NOT NULL DEFAULT 0,
	city TEXT
);
CREATE INDEX IF NOT EXISTS idx_postal_codes_lat_lng ON postal_codes (latitude, longitude);
`

// The export has no land or water areas; those load as 0.
const insertSQL = `
INSERT OR REPLACE INTO postal_codes
	(zcta_code, latitude, longitude, state, land_area_sqm, water_area_sqm, city)
VALUES (?, ?, ?, ?, 0, 0, ?)`

// Result summarizes one import run. Skipped counts malformed rows and
// rows for countries other than the US.
type Result struct {
	Imported int
	Skipped  int
}

// Importer writes GeoNames postal rows into a SQLite dataset file.
type Importer struct {
	logger *zap.Logger
}

// New creates an importer.
func New(logger *zap.Logger) *Importer {
	return &Importer{logger: logger}
}

// FromZip imports the data file inside a GeoNames postal zip. The
// archive's readme.txt is skipped.
func (im *Importer) FromZip(ctx context.Context, zipPath, dbPath string) (*Result, error) {
	rz, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer rz.Close()

	for _, f := range rz.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".txt") || name == "readme.txt" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open zip entry %s: %w", f.Name, err)
		}
		result, err := im.importReader(ctx, rc, dbPath)
		rc.Close()
		return result, err
	}
	return nil, fmt.Errorf("no data file found in %s", zipPath)
}

// FromTSV imports a raw GeoNames postal export file.
func (im *Importer) FromTSV(ctx context.Context, tsvPath, dbPath string) (*Result, error) {
	f, err := os.Open(tsvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", tsvPath, err)
	}
	defer f.Close()
	return im.importReader(ctx, f, dbPath)
}

func (im *Importer) importReader(ctx context.Context, r io.Reader, dbPath string) (*Result, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	// All rows land in one transaction so a failed import never leaves a
	// half-written dataset behind.
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	result := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < geonamesFields || fields[0] != "US" {
			result.Skipped++
			continue
		}

		code := strings.TrimSpace(fields[1])
		city := strings.TrimSpace(fields[2])
		state := strings.TrimSpace(fields[4])
		lat, errLat := strconv.ParseFloat(fields[9], 64)
		lng, errLng := strconv.ParseFloat(fields[10], 64)
		if code == "" || errLat != nil || errLng != nil {
			result.Skipped++
			continue
		}

		var cityVal interface{}
		if city != "" {
			cityVal = city
		}
		if _, err := stmt.ExecContext(ctx, code, lat, lng, state, cityVal); err != nil {
			return nil, fmt.Errorf("failed to insert %s: %w", code, err)
		}
		result.Imported++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read export: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	if result.Skipped > 0 {
		im.logger.Warn("skipped rows during import", zap.Int("count", result.Skipped))
	}
	im.logger.Info("dataset imported",
		zap.String("path", dbPath),
		zap.Int("records", result.Imported))
	return result, nil
}
