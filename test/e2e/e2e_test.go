package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/config"
	"github.com/meridianlabs/yubin/internal/importer"
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/search"
	"github.com/meridianlabs/yubin/internal/server"
	"github.com/meridianlabs/yubin/internal/storage"
	"github.com/meridianlabs/yubin/internal/tools"
)

// importCorpusZip writes the corpus zip fixture to disk and imports it
// into a fresh dataset file, returning the dataset path.
func importCorpusZip(t *testing.T, c *Corpus) string {
	t.Helper()
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "US.zip")
	if err := os.WriteFile(zipPath, GeoNamesZip(c.Records), 0644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "postal.db")
	result, err := importer.New(zap.NewNop()).FromZip(context.Background(), zipPath, dbPath)
	if err != nil {
		t.Fatalf("import corpus: %v", err)
	}
	if result.Imported != c.TotalRecords {
		t.Fatalf("imported %d records, want %d", result.Imported, c.TotalRecords)
	}
	return dbPath
}

func importCorpusTSV(t *testing.T, c *Corpus) string {
	t.Helper()
	dir := t.TempDir()
	tsvPath := filepath.Join(dir, "US.txt")
	if err := os.WriteFile(tsvPath, GeoNamesTSV(c.Records), 0644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "postal.db")
	result, err := importer.New(zap.NewNop()).FromTSV(context.Background(), tsvPath, dbPath)
	if err != nil {
		t.Fatalf("import corpus: %v", err)
	}
	if result.Imported != c.TotalRecords {
		t.Fatalf("imported %d records, want %d", result.Imported, c.TotalRecords)
	}
	return dbPath
}

func buildStack(t *testing.T, dbPath string) (*config.Config, *search.Engine, *tools.Dispatcher) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	mgr := storage.NewManager(dbPath, cfg.Database.MmapSize, zap.NewNop())
	t.Cleanup(func() { _ = mgr.Close() })
	engine := search.NewEngine(mgr, cfg, zap.NewNop())
	t.Cleanup(engine.Reset)
	return cfg, engine, tools.NewDispatcher(engine, zap.NewNop())
}

func callTool(t *testing.T, d *tools.Dispatcher, name string, args map[string]interface{}) interface{} {
	t.Helper()
	payload, err := json.Marshal(args)
	if err != nil {
		t.Fatal(err)
	}
	result, err := d.Call(context.Background(), name, payload)
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return result
}

func geonames(t *testing.T, result interface{}) *models.GeonamesResponse {
	t.Helper()
	resp, ok := result.(*models.GeonamesResponse)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if resp.Error != "" {
		t.Fatalf("degraded response: %s", resp.Error)
	}
	return resp
}

func codesOf(resp *models.GeonamesResponse) []string {
	codes := make([]string, 0, len(resp.Geonames))
	for _, g := range resp.Geonames {
		codes = append(codes, g.PostalCode)
	}
	return codes
}

func containsAny(got []string, expected []string) bool {
	set := make(map[string]bool)
	for _, code := range got {
		set[code] = true
	}
	for _, code := range expected {
		if set[code] {
			return true
		}
	}
	return false
}

func TestE2E_ToolsAnswerCorpusQueries(t *testing.T) {
	corpus := BuildCorpus()
	if corpus.TotalRecords == 0 {
		t.Fatal("corpus has no records")
	}
	if corpus.TotalQueries == 0 {
		t.Fatal("corpus has no query test cases")
	}

	dbPath := importCorpusZip(t, corpus)
	_, _, dispatcher := buildStack(t, dbPath)

	t.Logf("imported %d records; running %d query test cases", corpus.TotalRecords, corpus.TotalQueries)

	for _, tc := range corpus.GeocodeCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp := geonames(t, callTool(t, dispatcher, tools.ToolGeocodePostal,
				map[string]interface{}{"postalCode": tc.PostalCode}))
			if resp.TotalResultsCount != 1 {
				t.Fatalf("expected exactly one hit for %s, got %d", tc.PostalCode, resp.TotalResultsCount)
			}
			hit := resp.Geonames[0]
			if hit.PlaceName != tc.WantCity || hit.AdminCode1 != tc.WantState {
				t.Errorf("geocode %s = %s, %s, want %s, %s",
					tc.PostalCode, hit.PlaceName, hit.AdminCode1, tc.WantCity, tc.WantState)
			}
		})
	}

	for _, tc := range corpus.ReverseCases {
		t.Run(tc.Description, func(t *testing.T) {
			resp := geonames(t, callTool(t, dispatcher, tools.ToolReverseGeocode, map[string]interface{}{
				"latitude":  tc.Latitude,
				"longitude": tc.Longitude,
				"radius":    tc.RadiusKm,
			}))
			got := codesOf(resp)
			if len(tc.WantCodes) == 0 {
				if len(got) != 0 {
					t.Errorf("expected no coverage, got %v", got)
				}
				return
			}
			if !containsAny(got, tc.WantCodes) {
				t.Errorf("reverse (%g, %g): expected at least one of %v, got %v",
					tc.Latitude, tc.Longitude, tc.WantCodes, got)
			}
			for _, g := range resp.Geonames {
				if g.Distance == nil {
					t.Errorf("result %s has no distance", g.PostalCode)
				} else if *g.Distance > tc.RadiusKm {
					t.Errorf("result %s at %.2f km is outside the %g km radius",
						g.PostalCode, *g.Distance, tc.RadiusKm)
				}
			}
		})
	}

	for _, tc := range corpus.SuggestCases {
		t.Run(tc.Description, func(t *testing.T) {
			result := callTool(t, dispatcher, tools.ToolPostalSuggest,
				map[string]interface{}{"placeName": tc.Query})
			resp, ok := result.(*models.SuggestResponse)
			if !ok {
				t.Fatalf("unexpected result type %T", result)
			}
			if resp.Error != "" {
				t.Fatalf("degraded response: %s", resp.Error)
			}
			for _, s := range resp.Suggestions {
				if s.PlaceName == tc.WantPlace && s.AdminCode1 == tc.WantState {
					if corpus.RecordByCode(s.PostalCode) == nil {
						t.Errorf("suggestion carries unknown representative code %s", s.PostalCode)
					}
					return
				}
			}
			t.Errorf("suggest %q: %s, %s not among %d suggestions",
				tc.Query, tc.WantPlace, tc.WantState, len(resp.Suggestions))
		})
	}

	t.Run("validate known and unknown codes", func(t *testing.T) {
		result := callTool(t, dispatcher, tools.ToolValidatePostal,
			map[string]interface{}{"postalCode": corpus.Records[0].Code})
		v, ok := result.(*models.ValidationResult)
		if !ok {
			t.Fatalf("unexpected result type %T", result)
		}
		if !v.Valid {
			t.Errorf("%s should validate", corpus.Records[0].Code)
		}

		result = callTool(t, dispatcher, tools.ToolValidatePostal,
			map[string]interface{}{"postalCode": "00000"})
		v, ok = result.(*models.ValidationResult)
		if !ok {
			t.Fatalf("unexpected result type %T", result)
		}
		if v.Valid {
			t.Error("00000 should not validate")
		}
	})

	t.Run("nearest returns downtown codes in distance order", func(t *testing.T) {
		resp := geonames(t, callTool(t, dispatcher, tools.ToolPostalNearest, map[string]interface{}{
			"latitude":  47.6090,
			"longitude": -122.3400,
			"k":         3,
		}))
		if resp.TotalResultsCount != 3 {
			t.Fatalf("expected 3 neighbors, got %d", resp.TotalResultsCount)
		}
		if resp.Geonames[0].PostalCode != "98101" {
			t.Errorf("nearest = %s, want 98101", resp.Geonames[0].PostalCode)
		}
		for i := 1; i < len(resp.Geonames); i++ {
			if *resp.Geonames[i].Distance < *resp.Geonames[i-1].Distance {
				t.Errorf("neighbors out of distance order at position %d", i)
			}
		}
	})

	t.Run("stats reflect the imported dataset", func(t *testing.T) {
		result := callTool(t, dispatcher, tools.ToolPostalStats, map[string]interface{}{})
		stats, ok := result.(*models.DatasetStats)
		if !ok {
			t.Fatalf("unexpected result type %T", result)
		}
		if stats.Status != "connected" {
			t.Errorf("status = %q", stats.Status)
		}
		if stats.TotalRecords != corpus.TotalRecords {
			t.Errorf("totalRecords = %d, want %d", stats.TotalRecords, corpus.TotalRecords)
		}
		if stats.UniqueStates != corpus.StateCount() {
			t.Errorf("uniqueStates = %d, want %d", stats.UniqueStates, corpus.StateCount())
		}
		if stats.DatabaseSize <= 0 {
			t.Errorf("databaseSize = %d", stats.DatabaseSize)
		}
	})
}

// TestE2E_HTTPRoundTrip drives the same corpus through the HTTP API: the
// dataset is imported from the TSV fixture this time so both export
// formats get an import run, then every route is exercised against a
// live test server.
func TestE2E_HTTPRoundTrip(t *testing.T) {
	corpus := BuildCorpus()
	dbPath := importCorpusTSV(t, corpus)
	cfg, engine, dispatcher := buildStack(t, dbPath)

	srv := server.NewServer(dispatcher, engine, &cfg.Server, zap.NewNop())
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	getJSON := func(t *testing.T, path string, out interface{}) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s returned %d", path, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}

	postJSON := func(t *testing.T, path string, body interface{}, out interface{}) int {
		t.Helper()
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(payload))
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				t.Fatalf("decode %s: %v", path, err)
			}
		}
		return resp.StatusCode
	}

	t.Run("health", func(t *testing.T) {
		var body map[string]string
		getJSON(t, "/health", &body)
		if body["status"] != "ok" {
			t.Errorf("health = %v", body)
		}
	})

	t.Run("geocode route", func(t *testing.T) {
		var resp models.GeonamesResponse
		getJSON(t, "/api/v1/postal/90210", &resp)
		if resp.TotalResultsCount != 1 || resp.Geonames[0].PlaceName != "Beverly Hills" {
			t.Fatalf("geocode 90210 = %+v", resp)
		}
		if resp.Geonames[0].LandArea == nil || resp.Geonames[0].WaterArea == nil {
			t.Error("default style should include areas")
		}
	})

	t.Run("validate route", func(t *testing.T) {
		var v models.ValidationResult
		getJSON(t, "/api/v1/postal/98101/validate", &v)
		if !v.Valid {
			t.Error("98101 should validate")
		}
		getJSON(t, "/api/v1/postal/00000/validate", &v)
		if v.Valid {
			t.Error("00000 should not validate")
		}
	})

	t.Run("prefix search route", func(t *testing.T) {
		var resp models.GeonamesResponse
		status := postJSON(t, "/api/v1/search", map[string]interface{}{
			"postalcode_startsWith": "981",
			"country":               "US",
			"maxRows":               10,
		}, &resp)
		if status != http.StatusOK {
			t.Fatalf("search returned %d", status)
		}
		if resp.TotalResultsCount != 5 {
			t.Fatalf("prefix 981 returned %d results, want 5: %v", resp.TotalResultsCount, codesOf(&resp))
		}
		if resp.Geonames[0].PostalCode != "98101" {
			t.Errorf("first result = %s, want 98101", resp.Geonames[0].PostalCode)
		}
	})

	t.Run("reverse route", func(t *testing.T) {
		var resp models.GeonamesResponse
		getJSON(t, "/api/v1/reverse?lat=47.6062&lng=-122.3321&radius=5", &resp)
		if !containsAny(codesOf(&resp), []string{"98101", "98104"}) {
			t.Errorf("reverse downtown Seattle = %v", codesOf(&resp))
		}
		for _, g := range resp.Geonames {
			if g.Distance == nil || *g.Distance > 5 {
				t.Errorf("result %s outside the radius", g.PostalCode)
			}
		}
	})

	t.Run("nearest route", func(t *testing.T) {
		var resp models.GeonamesResponse
		getJSON(t, "/api/v1/nearest?lat=47.6090&lng=-122.3400&k=3", &resp)
		if resp.TotalResultsCount != 3 || resp.Geonames[0].PostalCode != "98101" {
			t.Errorf("nearest = %v", codesOf(&resp))
		}
	})

	t.Run("suggest route", func(t *testing.T) {
		var resp models.SuggestResponse
		getJSON(t, "/api/v1/suggest?q=seatle&limit=5", &resp)
		found := false
		for _, s := range resp.Suggestions {
			if s.PlaceName == "Seattle" && s.AdminCode1 == "WA" {
				found = true
			}
		}
		if !found {
			t.Errorf("suggest seatle did not surface Seattle: %+v", resp.Suggestions)
		}
	})

	t.Run("stats route", func(t *testing.T) {
		var stats models.DatasetStats
		getJSON(t, "/api/v1/stats", &stats)
		if stats.TotalRecords != corpus.TotalRecords || stats.Status != "connected" {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("tool endpoint", func(t *testing.T) {
		var resp models.GeonamesResponse
		status := postJSON(t, "/api/v1/tools/geocode_postal",
			map[string]interface{}{"postalCode": "98065"}, &resp)
		if status != http.StatusOK {
			t.Fatalf("tool call returned %d", status)
		}
		if resp.TotalResultsCount != 1 || resp.Geonames[0].PlaceName != "Snoqualmie" {
			t.Errorf("geocode_postal 98065 = %+v", resp)
		}

		var errBody map[string]string
		status = postJSON(t, "/api/v1/tools/no_such_tool", map[string]interface{}{}, &errBody)
		if status != http.StatusNotFound {
			t.Errorf("unknown tool returned %d, want 404", status)
		}
		if errBody["error"] == "" {
			t.Error("unknown tool response has no error message")
		}
	})

	t.Run("tool list", func(t *testing.T) {
		var defs []struct {
			Name string `json:"name"`
		}
		getJSON(t, "/api/v1/tools", &defs)
		if len(defs) != 7 {
			t.Errorf("tool list has %d entries, want 7", len(defs))
		}
	})
}
