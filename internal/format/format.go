// Package format shapes postal records into the GeoNames-compatible
// response format. All functions are pure; error shaping lives with the
// tool dispatcher.
package format

import (
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/pkg/utils"
)

// Record formats a single record at the given detail level. Land and
// water areas appear at MEDIUM and above. A non-nil distance (kilometers)
// is rounded to three decimals.
func Record(rec *models.PostalRecord, style string, distance *float64) *models.GeonamesResult {
	result := &models.GeonamesResult{
		PostalCode:  rec.Code,
		PlaceName:   placeName(rec),
		CountryCode: rec.CountryCode,
		Lat:         rec.Latitude,
		Lng:         rec.Longitude,
		AdminCode1:  rec.State,
		AdminName1:  StateName(rec.State),
	}

	if distance != nil {
		d := utils.RoundTo(*distance, 3)
		result.Distance = &d
	}

	switch style {
	case models.StyleMedium, models.StyleLong, models.StyleFull:
		land, water := rec.LandAreaSqm, rec.WaterAreaSqm
		result.LandArea = &land
		result.WaterArea = &water
	}

	return result
}

// Records formats a record list into a response envelope.
func Records(records []*models.PostalRecord, style string) *models.GeonamesResponse {
	geonames := make([]*models.GeonamesResult, 0, len(records))
	for _, rec := range records {
		geonames = append(geonames, Record(rec, style, nil))
	}
	return &models.GeonamesResponse{
		TotalResultsCount: len(geonames),
		Geonames:          geonames,
	}
}

// Proximity formats distance-annotated records into a response envelope.
func Proximity(results []*models.ProximityRecord, style string) *models.GeonamesResponse {
	geonames := make([]*models.GeonamesResult, 0, len(results))
	for _, r := range results {
		d := r.Distance
		geonames = append(geonames, Record(&r.PostalRecord, style, &d))
	}
	return &models.GeonamesResponse{
		TotalResultsCount: len(geonames),
		Geonames:          geonames,
	}
}

func placeName(rec *models.PostalRecord) string {
	if rec.City != "" {
		return rec.City
	}
	return "Unknown"
}
