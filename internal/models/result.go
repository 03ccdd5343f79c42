package models

// GeonamesResult is a single formatted hit in the GeoNames-compatible shape.
// Optional fields are pointers so SHORT responses omit them entirely rather
// than emitting zeros.
type GeonamesResult struct {
	PostalCode  string   `json:"postalCode"`
	PlaceName   string   `json:"placeName"`
	CountryCode string   `json:"countryCode"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	AdminCode1  string   `json:"adminCode1"`
	AdminName1  string   `json:"adminName1"`
	Distance    *float64 `json:"distance,omitempty"`
	LandArea    *float64 `json:"landArea,omitempty"`
	WaterArea   *float64 `json:"waterArea,omitempty"`
}

// GeonamesResponse is the response envelope for lookup and proximity requests.
// Degraded responses keep the same shape with Error set, zero count and an
// empty (never null) geonames array.
type GeonamesResponse struct {
	TotalResultsCount int               `json:"totalResultsCount"`
	Geonames          []*GeonamesResult `json:"geonames"`
	Error             string            `json:"error,omitempty"`
}

// DegradedResponse is the failure envelope for lookup and proximity
// requests: the error message alongside an empty, never-null result list.
func DegradedResponse(err error) *GeonamesResponse {
	return &GeonamesResponse{
		TotalResultsCount: 0,
		Geonames:          []*GeonamesResult{},
		Error:             err.Error(),
	}
}

// ValidationResult reports whether a postal code exists in the dataset.
type ValidationResult struct {
	PostalCode string `json:"postalCode"`
	Valid      bool   `json:"valid"`
	Error      string `json:"error,omitempty"`
}

// StatsResult is the wire shape for dataset statistics. Status is
// "connected" on success and "error" on failure.
type StatsResult struct {
	TotalRecords int    `json:"totalRecords,omitempty"`
	UniqueStates int    `json:"uniqueStates,omitempty"`
	DatabaseSize int64  `json:"databaseSize,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
}

// Suggestion is one fuzzy place name match. PostalCode carries a
// representative code for the place so a suggestion can be followed by a
// geocode lookup directly.
type Suggestion struct {
	PlaceName  string  `json:"placeName"`
	AdminCode1 string  `json:"adminCode1"`
	PostalCode string  `json:"postalCode"`
	Score      float64 `json:"score"`
}

// SuggestResponse is the response envelope for place name suggestions.
type SuggestResponse struct {
	TotalResultsCount int           `json:"totalResultsCount"`
	Suggestions       []*Suggestion `json:"suggestions"`
	Error             string        `json:"error,omitempty"`
}
