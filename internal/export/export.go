// Package export writes postal records to CSV or XLSX files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/meridianlabs/yubin/internal/models"
)

// sheetName is the worksheet records land on in XLSX exports.
const sheetName = "Postal Codes"

// header is the column layout shared by both formats.
var header = []string{
	"postal_code", "city", "state", "latitude", "longitude",
	"land_area_sqm", "water_area_sqm",
}

// Records writes records to path. The file extension picks the format,
// .csv or .xlsx.
func Records(records []*models.PostalRecord, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(records, path)
	case ".xlsx":
		return writeXLSX(records, path)
	default:
		return fmt.Errorf("unsupported export format %q (use .csv or .xlsx)", filepath.Ext(path))
	}
}

func writeCSV(records []*models.PostalRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Code,
			rec.City,
			rec.State,
			strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
			strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
			strconv.FormatFloat(rec.LandAreaSqm, 'f', -1, 64),
			strconv.FormatFloat(rec.WaterAreaSqm, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", rec.Code, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

func writeXLSX(records []*models.PostalRecord, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell for row %d: %w", i+2, err)
		}
		row := []interface{}{
			rec.Code, rec.City, rec.State,
			rec.Latitude, rec.Longitude,
			rec.LandAreaSqm, rec.WaterAreaSqm,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", rec.Code, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
