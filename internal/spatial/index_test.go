package spatial

import (
	"math"
	"testing"

	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/storage"
)

func testRecords() []*models.PostalRecord {
	return []*models.PostalRecord{
		{Code: "10001", Latitude: 40.7506, Longitude: -73.9972, State: "NY", CountryCode: "US", City: "New York"},
		{Code: "90210", Latitude: 34.0901, Longitude: -118.4065, State: "CA", CountryCode: "US", City: "Beverly Hills"},
		{Code: "98065", Latitude: 47.5300, Longitude: -122.0300, State: "WA", CountryCode: "US", City: "Snoqualmie"},
		{Code: "98198", Latitude: 47.6060, Longitude: -122.3320, State: "WA", CountryCode: "US", City: "Seattle"},
		{Code: "98199", Latitude: 47.6100, Longitude: -122.3300, State: "WA", CountryCode: "US", City: "Seattle"},
		{Code: "99501", Latitude: 61.2181, Longitude: -149.9003, State: "AK", CountryCode: "US"},
	}
}

func TestNewIndex(t *testing.T) {
	idx := NewIndex(testRecords())
	if idx.Size() != 6 {
		t.Errorf("size = %d, want 6", idx.Size())
	}
}

func TestIndex_WithinRadius(t *testing.T) {
	idx := NewIndex(testRecords())

	results := idx.WithinRadius(47.606, -122.332, 5.0, 10)
	if len(results) != 2 {
		t.Fatalf("expected 2 records within 5km, got %d", len(results))
	}
	if results[0].Code != "98198" || results[1].Code != "98199" {
		t.Errorf("got %s, %s", results[0].Code, results[1].Code)
	}

	want := storage.PlanarDistanceKm(47.610, -122.330, 47.606, -122.332)
	if math.Abs(results[1].Distance-want) > 1e-9 {
		t.Errorf("distance = %v, want %v", results[1].Distance, want)
	}

	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Error("distances not sorted ascending")
		}
	}
}

func TestIndex_WithinRadius_excludesBeyondRadius(t *testing.T) {
	idx := NewIndex(testRecords())

	results := idx.WithinRadius(47.606, -122.332, 50.0, 10)
	if len(results) != 3 {
		t.Fatalf("expected 3 records within 50km, got %d", len(results))
	}
	for _, r := range results {
		if r.Distance > 50.0 {
			t.Errorf("record %s at %v km exceeds radius", r.Code, r.Distance)
		}
	}
}

func TestIndex_WithinRadius_maxResults(t *testing.T) {
	idx := NewIndex(testRecords())
	results := idx.WithinRadius(47.606, -122.332, 50.0, 1)
	if len(results) != 1 || results[0].Code != "98198" {
		t.Fatalf("expected only the nearest record, got %d", len(results))
	}
}

func TestIndex_WithinRadius_empty(t *testing.T) {
	idx := NewIndex(testRecords())
	results := idx.WithinRadius(39.0, -98.0, 5.0, 10)
	if len(results) != 0 {
		t.Errorf("expected no records, got %d", len(results))
	}
}

// The index path must return exactly what the SQL bounding-box query
// returns for the same inputs.
func TestIndex_WithinRadius_matchesPlanarFilter(t *testing.T) {
	records := testRecords()
	idx := NewIndex(records)

	lat, lng, radius := 47.606, -122.332, 40.0
	results := idx.WithinRadius(lat, lng, radius, 100)

	var want []string
	for _, rec := range records {
		if storage.PlanarDistanceKm(rec.Latitude, rec.Longitude, lat, lng) <= radius {
			want = append(want, rec.Code)
		}
	}
	if len(results) != len(want) {
		t.Fatalf("got %d results, want %d", len(results), len(want))
	}
	got := map[string]bool{}
	for _, r := range results {
		got[r.Code] = true
	}
	for _, code := range want {
		if !got[code] {
			t.Errorf("missing %s", code)
		}
	}
}

func TestIndex_Nearest(t *testing.T) {
	idx := NewIndex(testRecords())

	results := idx.Nearest(47.60, -122.33, 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Code != "98198" {
		t.Errorf("nearest = %s, want 98198", results[0].Code)
	}
	if results[0].Distance <= 0 || results[0].Distance > 1.0 {
		t.Errorf("distance = %v, want within (0, 1.0] km", results[0].Distance)
	}
}

func TestIndex_Nearest_kOrdering(t *testing.T) {
	idx := NewIndex(testRecords())

	results := idx.Nearest(47.606, -122.332, 3)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	wantOrder := []string{"98198", "98199", "98065"}
	for i, code := range wantOrder {
		if results[i].Code != code {
			t.Errorf("result[%d] = %s, want %s", i, results[i].Code, code)
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Distance < results[i-1].Distance {
			t.Error("distances not sorted ascending")
		}
	}
}

func TestIndex_Nearest_kBeyondSize(t *testing.T) {
	idx := NewIndex(testRecords())
	results := idx.Nearest(47.606, -122.332, 10)
	if len(results) != 6 {
		t.Errorf("expected all 6 records, got %d", len(results))
	}
}

func TestIndex_Nearest_emptyIndex(t *testing.T) {
	idx := NewIndex(nil)
	if results := idx.Nearest(47.606, -122.332, 3); results != nil {
		t.Errorf("expected nil for empty index, got %v", results)
	}
}
