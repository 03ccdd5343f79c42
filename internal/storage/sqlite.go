package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/meridianlabs/yubin/internal/models"
)

// kmPerDegree is the planar scale factor: one degree of latitude spans
// roughly 111.32 km. Longitude degrees shrink by cos(latitude).
const kmPerDegree = 111.32

const selectColumns = `zcta_code, latitude, longitude, state, land_area_sqm, water_area_sqm, 'US' as country_code, city`

// Manager owns the single SQLite handle for the process. The handle is
// opened lazily on first use; concurrent first callers share one open.
// One handle is enough for this read-dominated workload under WAL, so the
// pool is pinned to a single connection and the per-connection pragmas hold
// for every query.
type Manager struct {
	path     string
	mmapSize int64
	logger   *zap.Logger

	mu sync.RWMutex
	db *sql.DB
}

// NewManager returns a Manager for the dataset file at path. The file is
// not touched until the first query.
func NewManager(path string, mmapSize int64, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{path: path, mmapSize: mmapSize, logger: logger}
}

// Path returns the dataset file path the Manager was built with.
func (m *Manager) Path() string {
	return m.path
}

// DB returns the shared handle, opening it on first call. Safe for
// concurrent use; exactly one handle is created even under racing callers.
func (m *Manager) DB(ctx context.Context) (*sql.DB, error) {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()
	if db != nil {
		return db, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}

	db, err := m.open(ctx)
	if err != nil {
		return nil, err
	}
	m.db = db
	return db, nil
}

func (m *Manager) open(ctx context.Context) (*sql.DB, error) {
	// sql.Open would silently create an empty database for a missing file.
	if _, err := os.Stat(m.path); err != nil {
		return nil, models.DatasetUnavailableErr("storage.open", fmt.Sprintf("dataset file %s does not exist", m.path), err)
	}

	db, err := sql.Open("sqlite3", m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA temp_store=memory",
		fmt.Sprintf("PRAGMA mmap_size=%d", m.mmapSize),
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	// The pragmas above are per-connection; a single pooled connection
	// keeps them in force for the life of the handle.
	db.SetMaxOpenConns(1)

	m.logger.Info("dataset opened", zap.String("path", m.path), zap.Int64("mmap_size", m.mmapSize))
	return db, nil
}

// Close releases the handle. Safe to call when no handle exists and safe
// to call more than once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}

// Reset closes the handle so the next query reopens the dataset file.
// Used when the file is replaced on disk.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	m.logger.Info("dataset handle reset", zap.String("path", m.path))
	return err
}

// FindByCode returns the record for an exact code, or nil when absent.
func (m *Manager) FindByCode(ctx context.Context, code string) (*models.PostalRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM postal_codes WHERE zcta_code = ?`, code)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, models.QueryFailedErr("storage.FindByCode", err)
	}
	return rec, nil
}

// FindByPrefix returns records whose code starts with prefix, ordered
// ascending by code, capped at limit.
func (m *Manager) FindByPrefix(ctx context.Context, prefix string, limit int) ([]*models.PostalRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM postal_codes
		 WHERE zcta_code LIKE ? || '%'
		 ORDER BY zcta_code
		 LIMIT ?`,
		prefix, limit,
	)
	if err != nil {
		return nil, models.QueryFailedErr("storage.FindByPrefix", err)
	}
	defer rows.Close()

	return collectRecords(rows, "storage.FindByPrefix")
}

// FindByState returns records whose state abbreviation matches state,
// ordered ascending by code, capped at limit.
func (m *Manager) FindByState(ctx context.Context, state string, limit int) ([]*models.PostalRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM postal_codes
		 WHERE state = ?
		 ORDER BY zcta_code
		 LIMIT ?`,
		state, limit,
	)
	if err != nil {
		return nil, models.QueryFailedErr("storage.FindByState", err)
	}
	defer rows.Close()

	return collectRecords(rows, "storage.FindByState")
}

// Search applies the query discriminators. An exact code wins over a
// prefix; with neither, all records up to MaxRows are returned in code order.
func (m *Manager) Search(ctx context.Context, q *models.SearchQuery) ([]*models.PostalRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM postal_codes WHERE 1=1`
	var args []interface{}

	if q.PostalCode != "" {
		query += ` AND zcta_code = ?`
		args = append(args, q.PostalCode)
	} else if q.PostalCodePrefix != "" {
		query += ` AND zcta_code LIKE ? || '%'`
		args = append(args, q.PostalCodePrefix)
	}

	query += ` ORDER BY zcta_code LIMIT ?`
	args = append(args, q.MaxRows)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, models.QueryFailedErr("storage.Search", err)
	}
	defer rows.Close()

	return collectRecords(rows, "storage.Search")
}

// FindNear returns records within RadiusKm of the center, nearest first,
// capped at MaxResults. Candidates are pruned with an axis-aligned
// bounding box before the per-row distance is computed, keeping the scan
// sub-linear in dataset size.
func (m *Manager) FindNear(ctx context.Context, q *models.ProximityQuery) ([]*models.ProximityRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	latDelta, lngDelta := BoundingDeltas(q.Latitude, q.RadiusKm)

	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns+`,
		        SQRT((latitude - ?) * (latitude - ?) +
		             (longitude - ?) * (longitude - ?)) * 111.32 as distance
		 FROM postal_codes
		 WHERE latitude BETWEEN ? AND ?
		   AND longitude BETWEEN ? AND ?
		   AND SQRT((latitude - ?) * (latitude - ?) +
		            (longitude - ?) * (longitude - ?)) * 111.32 <= ?
		 ORDER BY distance
		 LIMIT ?`,
		q.Latitude, q.Latitude, q.Longitude, q.Longitude,
		q.Latitude-latDelta, q.Latitude+latDelta,
		q.Longitude-lngDelta, q.Longitude+lngDelta,
		q.Latitude, q.Latitude, q.Longitude, q.Longitude,
		q.RadiusKm,
		q.MaxResults,
	)
	if err != nil {
		return nil, models.QueryFailedErr("storage.FindNear", err)
	}
	defer rows.Close()

	var results []*models.ProximityRecord
	for rows.Next() {
		var rec models.PostalRecord
		var city sql.NullString
		var distance float64
		if err := rows.Scan(&rec.Code, &rec.Latitude, &rec.Longitude, &rec.State,
			&rec.LandAreaSqm, &rec.WaterAreaSqm, &rec.CountryCode, &city, &distance); err != nil {
			return nil, models.QueryFailedErr("storage.FindNear", err)
		}
		rec.City = city.String
		results = append(results, &models.ProximityRecord{PostalRecord: rec, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, models.QueryFailedErr("storage.FindNear", err)
	}
	return results, nil
}

// Exists reports whether a code is present in the dataset.
func (m *Manager) Exists(ctx context.Context, code string) (bool, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return false, err
	}

	var one int
	err = db.QueryRowContext(ctx,
		`SELECT 1 FROM postal_codes WHERE zcta_code = ? LIMIT 1`, code).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, models.QueryFailedErr("storage.Exists", err)
	}
	return true, nil
}

// Stats returns dataset-wide aggregates. A failure reading the file size
// degrades to zero rather than failing the whole call.
func (m *Manager) Stats(ctx context.Context) (*models.DatasetStats, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.DatasetStats{Status: "connected"}

	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM postal_codes`).Scan(&stats.TotalRecords); err != nil {
		return nil, models.QueryFailedErr("storage.Stats", err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT state) FROM postal_codes`).Scan(&stats.UniqueStates); err != nil {
		return nil, models.QueryFailedErr("storage.Stats", err)
	}
	// On-disk footprint, not logical page count: WAL mode can hold a
	// sizable share of the dataset in the sidecar files.
	if size, err := DiskUsageBytes(sidecarPaths(m.path)...); err == nil {
		stats.DatabaseSize = size
	}

	return stats, nil
}

// All returns every record in code order.
func (m *Manager) All(ctx context.Context) ([]*models.PostalRecord, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM postal_codes ORDER BY zcta_code`)
	if err != nil {
		return nil, models.QueryFailedErr("storage.All", err)
	}
	defer rows.Close()

	return collectRecords(rows, "storage.All")
}

// BoundingDeltas converts a radius in kilometers at the given latitude
// into degree deltas for an axis-aligned bounding box.
func BoundingDeltas(lat, radiusKm float64) (latDelta, lngDelta float64) {
	latDelta = radiusKm / kmPerDegree
	lngDelta = radiusKm / (kmPerDegree * math.Cos(lat*math.Pi/180))
	return latDelta, lngDelta
}

// PlanarDistanceKm is the flat-earth distance between two coordinates,
// the same formula the SQL proximity query computes per row. Both degree
// axes are scaled uniformly, so results match the SQL path exactly.
func PlanarDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dlat := lat1 - lat2
	dlng := lng1 - lng2
	return math.Sqrt(dlat*dlat+dlng*dlng) * kmPerDegree
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*models.PostalRecord, error) {
	var rec models.PostalRecord
	var city sql.NullString
	if err := row.Scan(&rec.Code, &rec.Latitude, &rec.Longitude, &rec.State,
		&rec.LandAreaSqm, &rec.WaterAreaSqm, &rec.CountryCode, &city); err != nil {
		return nil, err
	}
	rec.City = city.String
	return &rec, nil
}

func collectRecords(rows *sql.Rows, op string) ([]*models.PostalRecord, error) {
	var records []*models.PostalRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, models.QueryFailedErr(op, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, models.QueryFailedErr(op, err)
	}
	return records, nil
}
