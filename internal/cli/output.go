// Package cli provides CLI output writers for Yubin.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// placeNameWidth caps place names in text rows. GeoNames place names can
// run past sixty characters.
const placeNameWidth = 40

// WriteResponse writes a lookup or proximity response to w in the given
// format. Use OutputJSON for parseable output consumable by other apps.
func WriteResponse(w io.Writer, response *models.GeonamesResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	default:
		writeResponseText(w, response)
		return nil
	}
}

func writeResponseText(w io.Writer, response *models.GeonamesResponse) {
	if response.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", response.Error)
		return
	}
	fmt.Fprintf(w, "Found %d results\n\n", response.TotalResultsCount)
	for _, result := range response.Geonames {
		writeOneResult(w, result)
	}
}

func writeOneResult(w io.Writer, result *models.GeonamesResult) {
	fmt.Fprintf(w, "%s  %s, %s (%s)\n", result.PostalCode,
		utils.Truncate(result.PlaceName, placeNameWidth), result.AdminCode1, result.AdminName1)
	fmt.Fprintf(w, "       %.4f, %.4f\n", result.Lat, result.Lng)
	if result.Distance != nil {
		fmt.Fprintf(w, "       %.2f km (%.2f mi) away\n",
			*result.Distance, utils.KmToMiles(*result.Distance))
	}
	if result.LandArea != nil && result.WaterArea != nil {
		fmt.Fprintf(w, "       land %.0f sqm, water %.0f sqm\n", *result.LandArea, *result.WaterArea)
	}
	fmt.Fprintln(w)
}

// WriteValidation writes a validation result to w in the given format.
func WriteValidation(w io.Writer, result *models.ValidationResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, result)
	default:
		if result.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", result.Error)
			return nil
		}
		if result.Valid {
			fmt.Fprintf(w, "%s is a valid US postal code\n", result.PostalCode)
		} else {
			fmt.Fprintf(w, "%s is not a known US postal code\n", result.PostalCode)
		}
		return nil
	}
}

// WriteStats writes dataset statistics to w in the given format.
func WriteStats(w io.Writer, stats *models.StatsResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, stats)
	default:
		fmt.Fprintf(w, "Status:        %s\n", stats.Status)
		if stats.Error != "" {
			fmt.Fprintf(w, "Error:         %s\n", stats.Error)
			return nil
		}
		fmt.Fprintf(w, "Total records: %d\n", stats.TotalRecords)
		fmt.Fprintf(w, "Unique states: %d\n", stats.UniqueStates)
		fmt.Fprintf(w, "Database size: %d bytes\n", stats.DatabaseSize)
		return nil
	}
}

// WriteSuggestions writes place name suggestions to w in the given format.
func WriteSuggestions(w io.Writer, response *models.SuggestResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	default:
		if response.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", response.Error)
			return nil
		}
		fmt.Fprintf(w, "Found %d suggestions\n\n", response.TotalResultsCount)
		for i, s := range response.Suggestions {
			fmt.Fprintf(w, "%d. %s, %s (postal %s, score %.2f)\n",
				i+1, s.PlaceName, s.AdminCode1, s.PostalCode, s.Score)
		}
		return nil
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
