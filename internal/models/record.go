// Package models defines core data structures for postal records, queries, and lookup results.
package models

// PostalRecord represents one postal area row from the reference dataset.
// CountryCode is always "US"; the dataset covers ZIP Code Tabulation Areas only.
type PostalRecord struct {
	Code         string  `json:"zcta_code" db:"zcta_code"`
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	State        string  `json:"state" db:"state"`
	LandAreaSqm  float64 `json:"land_area_sqm" db:"land_area_sqm"`
	WaterAreaSqm float64 `json:"water_area_sqm" db:"water_area_sqm"`
	CountryCode  string  `json:"country_code" db:"country_code"`
	City         string  `json:"city,omitempty" db:"city"`
}

// ProximityRecord is a PostalRecord annotated with the computed distance
// from a proximity query center, in kilometers.
type ProximityRecord struct {
	PostalRecord
	Distance float64 `json:"distance"`
}

// DatasetStats summarizes the loaded dataset.
type DatasetStats struct {
	TotalRecords int    `json:"totalRecords"`
	UniqueStates int    `json:"uniqueStates"`
	DatabaseSize int64  `json:"databaseSize"`
	Status       string `json:"status"`
}
