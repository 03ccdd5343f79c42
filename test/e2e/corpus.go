// Package e2e provides end-to-end tests: a multi-state postal dataset is
// imported from fixture files and every tool is queried against it.
package e2e

import "fmt"

// CorpusRecord is one postal code entry in the e2e dataset.
type CorpusRecord struct {
	Code      string
	City      string
	State     string
	Latitude  float64
	Longitude float64
}

// GeocodeCase looks up one code and checks the place it resolves to.
type GeocodeCase struct {
	PostalCode  string
	WantCity    string
	WantState   string
	Description string
}

// ReverseCase runs a radius query around a point. At least one of
// WantCodes must appear in the results; an empty WantCodes asserts the
// point has no coverage at all.
type ReverseCase struct {
	Latitude    float64
	Longitude   float64
	RadiusKm    float64
	WantCodes   []string
	Description string
}

// SuggestCase feeds a place name, possibly misspelled, to the suggester
// and checks the expected place appears among the suggestions.
type SuggestCase struct {
	Query       string
	WantPlace   string
	WantState   string
	Description string
}

// Corpus holds the dataset records and query test cases for E2E tests.
type Corpus struct {
	Records      []CorpusRecord
	GeocodeCases []GeocodeCase
	ReverseCases []ReverseCase
	SuggestCases []SuggestCase
	TotalRecords int
	TotalQueries int
}

// BuildCorpus returns a dataset of postal codes spread across twenty-one
// states plus query test cases with known answers against it.
func BuildCorpus() *Corpus {
	records := buildRecords()
	geocode := buildGeocodeCases(records)
	reverse := buildReverseCases()
	suggest := buildSuggestCases()
	return &Corpus{
		Records:      records,
		GeocodeCases: geocode,
		ReverseCases: reverse,
		SuggestCases: suggest,
		TotalRecords: len(records),
		TotalQueries: len(geocode) + len(reverse) + len(suggest),
	}
}

// The Puget Sound cluster is deliberately dense so radius and k-nearest
// queries have near neighbors to tell apart; the rest of the records
// spread the dataset across the country for state and stats coverage.
func buildRecords() []CorpusRecord {
	return []CorpusRecord{
		{"98101", "Seattle", "WA", 47.6114, -122.3305},
		{"98104", "Seattle", "WA", 47.6021, -122.3266},
		{"98107", "Seattle", "WA", 47.6674, -122.3795},
		{"98115", "Seattle", "WA", 47.6849, -122.2968},
		{"98199", "Seattle", "WA", 47.6510, -122.4045},
		{"98004", "Bellevue", "WA", 47.6184, -122.2060},
		{"98052", "Redmond", "WA", 47.6787, -122.1221},
		{"98065", "Snoqualmie", "WA", 47.5293, -121.8251},
		{"97201", "Portland", "OR", 45.5051, -122.6884},
		{"97301", "Salem", "OR", 44.9409, -123.0264},
		{"94103", "San Francisco", "CA", 37.7726, -122.4099},
		{"94110", "San Francisco", "CA", 37.7485, -122.4156},
		{"94301", "Palo Alto", "CA", 37.4443, -122.1560},
		{"95014", "Cupertino", "CA", 37.3181, -122.0451},
		{"90210", "Beverly Hills", "CA", 34.0901, -118.4065},
		{"90401", "Santa Monica", "CA", 34.0151, -118.4925},
		{"10001", "New York", "NY", 40.7506, -73.9972},
		{"10002", "New York", "NY", 40.7157, -73.9862},
		{"11201", "Brooklyn", "NY", 40.6937, -73.9905},
		{"14604", "Rochester", "NY", 43.1573, -77.6053},
		{"02108", "Boston", "MA", 42.3575, -71.0635},
		{"02134", "Allston", "MA", 42.3589, -71.1288},
		{"02139", "Cambridge", "MA", 42.3647, -71.1042},
		{"60601", "Chicago", "IL", 41.8858, -87.6229},
		{"60614", "Chicago", "IL", 41.9210, -87.6462},
		{"77002", "Houston", "TX", 29.7594, -95.3594},
		{"78701", "Austin", "TX", 30.2701, -97.7423},
		{"75201", "Dallas", "TX", 32.7876, -96.7994},
		{"80202", "Denver", "CO", 39.7491, -104.9990},
		{"33130", "Miami", "FL", 25.7677, -80.2044},
		{"32801", "Orlando", "FL", 28.5421, -81.3790},
		{"30303", "Atlanta", "GA", 33.7525, -84.3888},
		{"85004", "Phoenix", "AZ", 33.4555, -112.0697},
		{"89101", "Las Vegas", "NV", 36.1730, -115.1221},
		{"55401", "Minneapolis", "MN", 44.9848, -93.2697},
		{"48201", "Detroit", "MI", 42.3470, -83.0600},
		{"19103", "Philadelphia", "PA", 39.9523, -75.1740},
		{"20001", "Washington", "DC", 38.9111, -77.0172},
		{"99501", "Anchorage", "AK", 61.2180, -149.8584},
		{"96813", "Honolulu", "HI", 21.3187, -157.8520},
		{"70112", "New Orleans", "LA", 29.9571, -90.0771},
		{"37203", "Nashville", "TN", 36.1508, -86.7917},
		{"84101", "Salt Lake City", "UT", 40.7557, -111.8986},
	}
}

func buildGeocodeCases(records []CorpusRecord) []GeocodeCase {
	codes := []string{
		"98101", "98065", "90210", "10001", "02134",
		"60601", "78701", "20001", "99501", "96813",
	}
	var cases []GeocodeCase
	for _, code := range codes {
		for _, r := range records {
			if r.Code == code {
				cases = append(cases, GeocodeCase{
					PostalCode:  code,
					WantCity:    r.City,
					WantState:   r.State,
					Description: fmt.Sprintf("geocode %s should return %s, %s", code, r.City, r.State),
				})
				break
			}
		}
	}
	return cases
}

func buildReverseCases() []ReverseCase {
	return []ReverseCase{
		{47.6062, -122.3321, 5, []string{"98101", "98104"},
			"reverse near downtown Seattle should find a downtown code"},
		{47.6156, -122.2040, 4, []string{"98004"},
			"reverse near Bellevue should find 98004"},
		{37.7599, -122.4148, 3, []string{"94103", "94110"},
			"reverse in the Mission should find a San Francisco code"},
		{40.7400, -73.9900, 3, []string{"10001", "10002"},
			"reverse in Manhattan should find a New York code"},
		{44.0, -140.0, 50, nil,
			"reverse over the open Pacific should find nothing"},
	}
}

func buildSuggestCases() []SuggestCase {
	return []SuggestCase{
		{"seattle", "Seattle", "WA", "exact name should suggest Seattle"},
		{"seatle", "Seattle", "WA", "single-typo name should still suggest Seattle"},
		{"chigaco", "Chicago", "IL", "swapped letters should still suggest Chicago"},
		{"san francisco", "San Francisco", "CA", "two-word name should suggest San Francisco"},
		{"bellevue", "Bellevue", "WA", "exact name should suggest Bellevue"},
	}
}

// RecordByCode returns the corpus record with the given code, or nil.
func (c *Corpus) RecordByCode(code string) *CorpusRecord {
	for i := range c.Records {
		if c.Records[i].Code == code {
			return &c.Records[i]
		}
	}
	return nil
}

// StateCount returns the number of distinct states in the corpus.
func (c *Corpus) StateCount() int {
	states := make(map[string]bool)
	for _, r := range c.Records {
		states[r.State] = true
	}
	return len(states)
}
