// Package storage owns the reference dataset: locating or fetching the
// dataset file, the lazily opened SQLite handle, and all read queries.
package storage

import (
	"context"

	"github.com/meridianlabs/yubin/internal/models"
)

// Storage defines read operations over the postal dataset.
// No operation mutates the dataset.
type Storage interface {
	// FindByCode returns the record for an exact code, or nil when absent.
	FindByCode(ctx context.Context, code string) (*models.PostalRecord, error)
	// FindByPrefix returns records whose code starts with prefix, ordered
	// ascending by code, capped at limit.
	FindByPrefix(ctx context.Context, prefix string, limit int) ([]*models.PostalRecord, error)
	// FindByState returns records in a state, ordered ascending by code,
	// capped at limit.
	FindByState(ctx context.Context, state string, limit int) ([]*models.PostalRecord, error)
	// Search applies the query discriminators (exact code first, then
	// prefix), ordered ascending by code, capped at MaxRows.
	Search(ctx context.Context, q *models.SearchQuery) ([]*models.PostalRecord, error)
	// FindNear returns records within RadiusKm of the center, nearest
	// first, capped at MaxResults. Distances are planar kilometers.
	FindNear(ctx context.Context, q *models.ProximityQuery) ([]*models.ProximityRecord, error)
	// Exists reports whether a code is present.
	Exists(ctx context.Context, code string) (bool, error)
	// Stats returns dataset-wide aggregate statistics.
	Stats(ctx context.Context) (*models.DatasetStats, error)
	// All returns every record. Used to build in-memory indexes and for export.
	All(ctx context.Context) ([]*models.PostalRecord, error)

	Close() error
}
