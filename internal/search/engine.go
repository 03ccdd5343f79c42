// Package search provides the postal lookup and spatial query engine.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/config"
	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/spatial"
	"github.com/meridianlabs/yubin/internal/storage"
	"github.com/meridianlabs/yubin/internal/suggest"
)

// ErrSuggestDisabled is returned by SuggestPlaces when the suggest index
// is turned off in configuration.
var ErrSuggestDisabled = errors.New("place suggestions are disabled")

// Engine answers postal queries against the dataset. All query structs
// are validated here, so the storage layer never sees an out-of-range
// bound. In-memory indexes are built lazily from a full dataset read and
// are immutable until Reset.
type Engine struct {
	store          storage.Storage
	logger         *zap.Logger
	spatialEnabled bool
	suggestEnabled bool

	mu      sync.Mutex
	spatial *spatial.Index
	places  *suggest.Index
}

// NewEngine creates a query engine over the given storage.
func NewEngine(store storage.Storage, cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:          store,
		logger:         logger,
		spatialEnabled: cfg.Spatial.EnabledOrDefault(),
		suggestEnabled: cfg.Suggest.EnabledOrDefault(),
	}
}

// FindByCode returns the record for an exact code, or nil when absent.
func (e *Engine) FindByCode(ctx context.Context, code string) (*models.PostalRecord, error) {
	return e.store.FindByCode(ctx, code)
}

// FindByPrefix returns up to limit records starting with prefix, in code
// order. A zero limit defaults to 10.
func (e *Engine) FindByPrefix(ctx context.Context, prefix string, limit int) ([]*models.PostalRecord, error) {
	if limit == 0 {
		limit = 10
	}
	if limit < 1 || limit > 100 {
		return nil, models.ValidationErr("search.FindByPrefix", fmt.Errorf("limit must be between 1 and 100, got %d", limit))
	}
	return e.store.FindByPrefix(ctx, prefix, limit)
}

// Search validates q and runs the discriminator search.
func (e *Engine) Search(ctx context.Context, q *models.SearchQuery) ([]*models.PostalRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, models.ValidationErr("search.Search", err)
	}
	return e.store.Search(ctx, q)
}

// FindNear validates q and returns records within the radius, nearest
// first. When the spatial index is enabled it answers from memory;
// otherwise, or when the index cannot be built, the SQL bounding-box
// query serves the call. Both paths return identical results.
func (e *Engine) FindNear(ctx context.Context, q *models.ProximityQuery) ([]*models.ProximityRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, models.ValidationErr("search.FindNear", err)
	}

	if e.spatialEnabled {
		idx, err := e.ensureSpatial(ctx)
		if err != nil {
			e.logger.Warn("spatial index unavailable, falling back to storage query", zap.Error(err))
		} else {
			return idx.WithinRadius(q.Latitude, q.Longitude, q.RadiusKm, q.MaxResults), nil
		}
	}

	return e.store.FindNear(ctx, q)
}

// Nearest validates q and returns the K closest records with
// great-circle distances, ascending. Always served by the in-memory
// index; the radius-bounded SQL query has no unbounded equivalent.
func (e *Engine) Nearest(ctx context.Context, q *models.NearestQuery) ([]*models.ProximityRecord, error) {
	if err := q.Validate(); err != nil {
		return nil, models.ValidationErr("search.Nearest", err)
	}

	idx, err := e.ensureSpatial(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Nearest(q.Latitude, q.Longitude, q.K), nil
}

// Exists reports whether a code is present in the dataset.
func (e *Engine) Exists(ctx context.Context, code string) (bool, error) {
	return e.store.Exists(ctx, code)
}

// Stats returns dataset-wide aggregate statistics.
func (e *Engine) Stats(ctx context.Context) (*models.DatasetStats, error) {
	return e.store.Stats(ctx)
}

// SuggestPlaces validates q and returns typo-tolerant place name matches.
func (e *Engine) SuggestPlaces(ctx context.Context, q *models.SuggestQuery) ([]*models.Suggestion, error) {
	if err := q.Validate(); err != nil {
		return nil, models.ValidationErr("search.SuggestPlaces", err)
	}
	if !e.suggestEnabled {
		return nil, ErrSuggestDisabled
	}

	idx, err := e.ensurePlaces(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Suggest(q.Query, q.Limit)
}

// Reset drops the in-memory indexes so the next query rebuilds them.
// Called when the dataset file is replaced.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.places != nil {
		_ = e.places.Close()
	}
	e.spatial = nil
	e.places = nil
}

func (e *Engine) ensureSpatial(ctx context.Context) (*spatial.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spatial != nil {
		return e.spatial, nil
	}

	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for spatial index: %w", err)
	}
	e.spatial = spatial.NewIndex(records)
	e.logger.Info("spatial index built", zap.Int("records", e.spatial.Size()))
	return e.spatial, nil
}

func (e *Engine) ensurePlaces(ctx context.Context) (*suggest.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.places != nil {
		return e.places, nil
	}

	records, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load records for suggest index: %w", err)
	}
	idx, err := suggest.NewIndex(records)
	if err != nil {
		return nil, err
	}
	e.places = idx
	e.logger.Info("suggest index built", zap.Int("places", idx.Size()))
	return idx, nil
}
