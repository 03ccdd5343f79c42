package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/format"
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/search"
)

// searchMaxRows pins the result cap for postal_code_search.
const searchMaxRows = 10

// Suggestion bounds for postal_suggest, narrower than the engine's own.
const (
	suggestDefaultResults = 5
	suggestMaxResults     = 20
)

var (
	// ErrUnknownTool marks a tool name not present in the registry.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrInvalidArgs marks a malformed call: an argument payload that is
	// not a JSON object, a missing required key, or a wrongly typed value.
	// Out-of-range values inside a well-formed call degrade instead.
	ErrInvalidArgs = errors.New("invalid arguments")
)

// Dispatcher routes named tool calls to the engine and shapes the results.
type Dispatcher struct {
	engine *search.Engine
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher over the given engine.
func NewDispatcher(engine *search.Engine, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{engine: engine, logger: logger}
}

// List returns the tool registry for discovery endpoints.
func (d *Dispatcher) List() []Tool {
	return Definitions()
}

// Call dispatches one tool invocation. The returned error is non-nil only
// for malformed calls (unknown tool, bad argument envelope); operational
// failures come back as the tool's degraded JSON shape with a nil error.
func (d *Dispatcher) Call(ctx context.Context, name string, rawArgs json.RawMessage) (interface{}, error) {
	args, err := decodeArgs(rawArgs)
	if err != nil {
		return nil, err
	}

	switch name {
	case ToolPostalCodeSearch:
		return d.postalCodeSearch(ctx, args)
	case ToolGeocodePostal:
		return d.geocodePostal(ctx, args)
	case ToolReverseGeocode:
		return d.reverseGeocode(ctx, args)
	case ToolValidatePostal:
		return d.validatePostal(ctx, args)
	case ToolPostalStats:
		return d.postalStats(ctx), nil
	case ToolPostalSuggest:
		return d.postalSuggest(ctx, args)
	case ToolPostalNearest:
		return d.postalNearest(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func (d *Dispatcher) postalCodeSearch(ctx context.Context, args argMap) (interface{}, error) {
	code, err := args.requiredString("postal_code")
	if err != nil {
		return nil, err
	}
	style, err := args.optionalString("style")
	if err != nil {
		return nil, err
	}

	q := &models.SearchQuery{
		PostalCode: code,
		Country:    "US",
		MaxRows:    searchMaxRows,
		Style:      style,
	}
	records, err := d.engine.Search(ctx, q)
	if err != nil {
		return d.degradedSearch(ToolPostalCodeSearch, err), nil
	}
	return format.Records(records, q.Style), nil
}

func (d *Dispatcher) geocodePostal(ctx context.Context, args argMap) (interface{}, error) {
	code, err := args.requiredString("postalCode")
	if err != nil {
		return nil, err
	}
	style, err := args.optionalString("style")
	if err != nil {
		return nil, err
	}
	if style == "" {
		style = models.StyleMedium
	}
	if err := models.ValidateStyle(style); err != nil {
		return d.degradedSearch(ToolGeocodePostal, err), nil
	}

	rec, err := d.engine.FindByCode(ctx, code)
	if err != nil {
		return d.degradedSearch(ToolGeocodePostal, err), nil
	}
	if rec == nil {
		// Absence is not an error: an empty envelope without an error field.
		return format.Records(nil, style), nil
	}
	return format.Records([]*models.PostalRecord{rec}, style), nil
}

func (d *Dispatcher) reverseGeocode(ctx context.Context, args argMap) (interface{}, error) {
	lat, err := args.requiredFloat("latitude")
	if err != nil {
		return nil, err
	}
	lng, err := args.requiredFloat("longitude")
	if err != nil {
		return nil, err
	}
	radius, err := args.optionalFloat("radius")
	if err != nil {
		return nil, err
	}
	maxResults, err := args.optionalInt("maxResults")
	if err != nil {
		return nil, err
	}
	style, err := args.optionalString("style")
	if err != nil {
		return nil, err
	}

	q := &models.ProximityQuery{
		Latitude:   lat,
		Longitude:  lng,
		RadiusKm:   radius,
		MaxResults: maxResults,
		Style:      style,
	}
	results, err := d.engine.FindNear(ctx, q)
	if err != nil {
		return d.degradedSearch(ToolReverseGeocode, err), nil
	}
	return format.Proximity(results, q.Style), nil
}

func (d *Dispatcher) validatePostal(ctx context.Context, args argMap) (interface{}, error) {
	code, err := args.requiredString("postalCode")
	if err != nil {
		return nil, err
	}

	valid, err := d.engine.Exists(ctx, code)
	if err != nil {
		d.logger.Warn("tool call degraded",
			zap.String("tool", ToolValidatePostal), zap.Error(err))
		return &models.ValidationResult{PostalCode: code, Valid: false, Error: err.Error()}, nil
	}
	return &models.ValidationResult{PostalCode: code, Valid: valid}, nil
}

func (d *Dispatcher) postalStats(ctx context.Context) interface{} {
	stats, err := d.engine.Stats(ctx)
	if err != nil {
		d.logger.Warn("tool call degraded",
			zap.String("tool", ToolPostalStats), zap.Error(err))
		return &models.StatsResult{Status: "error", Error: err.Error()}
	}
	return stats
}

func (d *Dispatcher) postalSuggest(ctx context.Context, args argMap) (interface{}, error) {
	place, err := args.requiredString("placeName")
	if err != nil {
		return nil, err
	}
	limit, err := args.optionalInt("maxResults")
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = suggestDefaultResults
	}
	if limit < 1 || limit > suggestMaxResults {
		rangeErr := fmt.Errorf("maxResults must be between 1 and %d, got %d", suggestMaxResults, limit)
		return d.degradedSuggest(rangeErr), nil
	}

	suggestions, err := d.engine.SuggestPlaces(ctx, &models.SuggestQuery{Query: place, Limit: limit})
	if err != nil {
		return d.degradedSuggest(err), nil
	}
	return &models.SuggestResponse{
		TotalResultsCount: len(suggestions),
		Suggestions:       suggestions,
	}, nil
}

func (d *Dispatcher) postalNearest(ctx context.Context, args argMap) (interface{}, error) {
	lat, err := args.requiredFloat("latitude")
	if err != nil {
		return nil, err
	}
	lng, err := args.requiredFloat("longitude")
	if err != nil {
		return nil, err
	}
	k, err := args.optionalInt("k")
	if err != nil {
		return nil, err
	}
	style, err := args.optionalString("style")
	if err != nil {
		return nil, err
	}

	q := &models.NearestQuery{Latitude: lat, Longitude: lng, K: k, Style: style}
	results, err := d.engine.Nearest(ctx, q)
	if err != nil {
		return d.degradedSearch(ToolPostalNearest, err), nil
	}
	return format.Proximity(results, q.Style), nil
}

func (d *Dispatcher) degradedSearch(tool string, err error) *models.GeonamesResponse {
	d.logger.Warn("tool call degraded", zap.String("tool", tool), zap.Error(err))
	return models.DegradedResponse(err)
}

func (d *Dispatcher) degradedSuggest(err error) *models.SuggestResponse {
	d.logger.Warn("tool call degraded",
		zap.String("tool", ToolPostalSuggest), zap.Error(err))
	return &models.SuggestResponse{
		Suggestions: []*models.Suggestion{},
		Error:       err.Error(),
	}
}

// argMap holds raw tool arguments so required-key checks can distinguish
// an absent argument from a present zero value.
type argMap map[string]json.RawMessage

func decodeArgs(raw json.RawMessage) (argMap, error) {
	if len(raw) == 0 {
		return argMap{}, nil
	}
	var m argMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: arguments must be a JSON object", ErrInvalidArgs)
	}
	if m == nil {
		m = argMap{}
	}
	return m, nil
}

func (a argMap) requiredString(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", fmt.Errorf("%w: missing required argument %q", ErrInvalidArgs, key)
	}
	return unmarshalString(raw, key)
}

func (a argMap) optionalString(key string) (string, error) {
	raw, ok := a[key]
	if !ok {
		return "", nil
	}
	return unmarshalString(raw, key)
}

func (a argMap) requiredFloat(key string) (float64, error) {
	raw, ok := a[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing required argument %q", ErrInvalidArgs, key)
	}
	return unmarshalFloat(raw, key)
}

func (a argMap) optionalFloat(key string) (float64, error) {
	raw, ok := a[key]
	if !ok {
		return 0, nil
	}
	return unmarshalFloat(raw, key)
}

func (a argMap) optionalInt(key string) (int, error) {
	raw, ok := a[key]
	if !ok {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidArgs, key)
	}
	return n, nil
}

func unmarshalString(raw json.RawMessage, key string) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgs, key)
	}
	return s, nil
}

func unmarshalFloat(raw json.RawMessage, key string) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgs, key)
	}
	return f, nil
}
