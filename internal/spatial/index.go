// Package spatial provides an in-memory R-tree over postal record
// centroids for bounding-box proximity search and k-nearest-neighbor
// lookup.
package spatial

import (
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/umahmood/haversine"

	"github.com/meridianlabs/yubin/internal/models"
	"github.com/meridianlabs/yubin/internal/storage"
)

// pointExtent is the edge length of the near-zero rectangle representing
// a record centroid. Small enough that bounding-box inclusion stays
// within the exact distance filter's reach.
const pointExtent = 1e-9

type postalItem struct {
	rect rtreego.Rect
	rec  *models.PostalRecord
}

func (p *postalItem) Bounds() rtreego.Rect {
	return p.rect
}

// Index is an immutable spatial index over postal records. Build it once
// from a full dataset read; reads are safe for concurrent use.
type Index struct {
	tree *rtreego.Rtree
	size int
}

// NewIndex builds the R-tree from records. Records whose coordinates
// cannot form a rectangle are skipped.
func NewIndex(records []*models.PostalRecord) *Index {
	tree := rtreego.NewTree(2, 25, 50)
	size := 0
	for _, rec := range records {
		point := rtreego.Point{rec.Longitude, rec.Latitude}
		rect, err := rtreego.NewRect(point, []float64{pointExtent, pointExtent})
		if err != nil {
			continue
		}
		tree.Insert(&postalItem{rect: rect, rec: rec})
		size++
	}
	return &Index{tree: tree, size: size}
}

// Size returns the number of indexed records.
func (idx *Index) Size() int {
	return idx.size
}

// WithinRadius returns records within radiusKm of the center, nearest
// first, capped at maxResults. Candidates come from the same bounding box
// the SQL path uses, and the same planar distance filter and ordering are
// applied, so both paths return identical results.
func (idx *Index) WithinRadius(lat, lng, radiusKm float64, maxResults int) []*models.ProximityRecord {
	latDelta, lngDelta := storage.BoundingDeltas(lat, radiusKm)

	anchor := rtreego.Point{lng - lngDelta, lat - latDelta}
	rect, err := rtreego.NewRect(anchor, []float64{2 * lngDelta, 2 * latDelta})
	if err != nil {
		return nil
	}

	var results []*models.ProximityRecord
	for _, item := range idx.tree.SearchIntersect(rect) {
		rec := item.(*postalItem).rec
		d := storage.PlanarDistanceKm(rec.Latitude, rec.Longitude, lat, lng)
		if d > radiusKm {
			continue
		}
		results = append(results, &models.ProximityRecord{PostalRecord: *rec, Distance: d})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Code < results[j].Code
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Nearest returns the k records closest to the point with great-circle
// distances in kilometers, ascending. The R-tree candidates are ranked in
// planar degree space, so a wider candidate set is fetched and re-ranked
// by haversine before taking k.
func (idx *Index) Nearest(lat, lng float64, k int) []*models.ProximityRecord {
	if k <= 0 || idx.size == 0 {
		return nil
	}

	fetch := k * 4
	if fetch < 16 {
		fetch = 16
	}
	if fetch > idx.size {
		fetch = idx.size
	}

	center := haversine.Coord{Lat: lat, Lon: lng}
	var results []*models.ProximityRecord
	for _, item := range idx.tree.NearestNeighbors(fetch, rtreego.Point{lng, lat}) {
		if item == nil {
			continue
		}
		rec := item.(*postalItem).rec
		_, km := haversine.Distance(center, haversine.Coord{Lat: rec.Latitude, Lon: rec.Longitude})
		results = append(results, &models.ProximityRecord{PostalRecord: *rec, Distance: km})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Code < results[j].Code
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
