package models

import (
	"fmt"
	"strings"
)

// Detail levels control how many fields each formatted result carries.
const (
	StyleShort  = "SHORT"
	StyleMedium = "MEDIUM"
	StyleLong   = "LONG"
	StyleFull   = "FULL"
)

// SearchQuery represents a postal code search request.
// PostalCode and PostalCodePrefix are discriminators: when both are set,
// the exact code wins and the prefix is ignored. PlaceName, PlaceNamePrefix,
// Country, CountryBias and Operator are accepted for wire compatibility but
// do not narrow results beyond the postal code discriminators.
type SearchQuery struct {
	PostalCode       string `json:"postalcode,omitempty"`
	PostalCodePrefix string `json:"postalcode_startsWith,omitempty"`
	PlaceName        string `json:"placename,omitempty"`
	PlaceNamePrefix  string `json:"placename_startsWith,omitempty"`
	Country          string `json:"country,omitempty"`
	CountryBias      string `json:"countryBias,omitempty"`
	MaxRows          int    `json:"maxRows,omitempty"`
	Style            string `json:"style,omitempty"`
	Operator         string `json:"operator,omitempty"`
}

// Validate normalizes defaults and rejects out-of-range fields.
// Out-of-range values are errors, never silently clamped, so the storage
// layer only ever sees bounds inside the contract.
func (q *SearchQuery) Validate() error {
	if q.MaxRows == 0 {
		q.MaxRows = 10
	}
	if q.MaxRows < 1 || q.MaxRows > 100 {
		return fmt.Errorf("maxRows must be between 1 and 100, got %d", q.MaxRows)
	}
	if q.Style == "" {
		q.Style = StyleMedium
	}
	if err := ValidateStyle(q.Style); err != nil {
		return err
	}
	if q.Operator == "" {
		q.Operator = "AND"
	}
	if q.Operator != "AND" && q.Operator != "OR" {
		return fmt.Errorf("operator must be AND or OR, got %q", q.Operator)
	}
	if q.Country != "" && q.Country != "US" {
		return fmt.Errorf("country must be US, got %q", q.Country)
	}
	return nil
}

// ProximityQuery represents a reverse geocode request: postal codes within
// RadiusKm kilometers of the given center, nearest first.
type ProximityQuery struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	RadiusKm   float64 `json:"radius,omitempty"`
	MaxResults int     `json:"maxResults,omitempty"`
	Style      string  `json:"style,omitempty"`
}

// Validate normalizes defaults and rejects out-of-range fields.
func (q *ProximityQuery) Validate() error {
	if q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", q.Latitude)
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", q.Longitude)
	}
	if q.RadiusKm == 0 {
		q.RadiusKm = 5.0
	}
	if q.RadiusKm < 0.1 || q.RadiusKm > 100 {
		return fmt.Errorf("radius must be between 0.1 and 100 km, got %g", q.RadiusKm)
	}
	if q.MaxResults == 0 {
		q.MaxResults = 10
	}
	if q.MaxResults < 1 || q.MaxResults > 100 {
		return fmt.Errorf("maxResults must be between 1 and 100, got %d", q.MaxResults)
	}
	if q.Style == "" {
		q.Style = StyleMedium
	}
	return ValidateStyle(q.Style)
}

// NearestQuery asks for the K postal codes closest to a point, with no
// radius bound. Distances are great-circle kilometers.
type NearestQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	K         int     `json:"k,omitempty"`
	Style     string  `json:"style,omitempty"`
}

// Validate normalizes defaults and rejects out-of-range fields.
func (q *NearestQuery) Validate() error {
	if q.Latitude < -90 || q.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", q.Latitude)
	}
	if q.Longitude < -180 || q.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", q.Longitude)
	}
	if q.K == 0 {
		q.K = 1
	}
	if q.K < 1 || q.K > 10 {
		return fmt.Errorf("k must be between 1 and 10, got %d", q.K)
	}
	if q.Style == "" {
		q.Style = StyleMedium
	}
	return ValidateStyle(q.Style)
}

// SuggestQuery asks for place name suggestions matching a possibly
// misspelled fragment.
type SuggestQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the suggestion query has valid fields and sets defaults.
func (q *SuggestQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit == 0 {
		q.Limit = 10
	}
	if q.Limit < 1 || q.Limit > 50 {
		return fmt.Errorf("limit must be between 1 and 50, got %d", q.Limit)
	}
	return nil
}

// ValidateStyle checks a detail level against the accepted set.
func ValidateStyle(style string) error {
	switch style {
	case StyleShort, StyleMedium, StyleLong, StyleFull:
		return nil
	default:
		return fmt.Errorf("style must be one of SHORT, MEDIUM, LONG, FULL, got %q", style)
	}
}
